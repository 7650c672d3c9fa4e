package testutil

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// LanguageFixture describes the resources of one fixture language.
type LanguageFixture struct {
	Code string
	// Header is written as the first rank table line when set.
	Header string
	// Tokens are written as the rank table, most frequent first. No rank
	// table is written when both Header and Tokens are empty.
	Tokens []string
	// Lowercase and Frequency make up the alphabet. No alphabet is written
	// when Lowercase is empty.
	Lowercase []string
	Frequency map[string]float64
	Script    string
	// AlphabetName overrides the alphabet file stem, e.g. "sr-Cyrl".
	AlphabetName string
	Name         string
}

// RootFixture describes a complete resource root.
type RootFixture struct {
	Languages []LanguageFixture
	// CharIndex writes char_index.json built from the fixture alphabets.
	CharIndex bool
	// ScriptIndex writes script_index.json from the given language→script map.
	ScriptIndex map[string]string
	// WriteCatalog writes index.json listing every fixture language.
	WriteCatalog bool
}

type alphabetFile struct {
	Alphabetical []string           `json:"alphabetical"`
	Uppercase    []string           `json:"uppercase"`
	Lowercase    []string           `json:"lowercase"`
	Frequency    map[string]float64 `json:"frequency"`
	Script       string             `json:"script,omitempty"`
}

type catalogEntry struct {
	Language       string `json:"language"`
	Name           string `json:"language-name,omitempty"`
	FrequencyAvail bool   `json:"frequency-avail"`
	ScriptType     string `json:"script-type,omitempty"`
	Direction      string `json:"direction"`
}

// WriteResourceRoot writes fx into a fresh temporary directory and returns it.
func WriteResourceRoot(t *testing.T, fx RootFixture) string {
	t.Helper()

	root := t.TempDir()
	charToLangs := make(map[string][]string)
	catalog := make([]catalogEntry, 0, len(fx.Languages))

	for _, lang := range fx.Languages {
		hasRanks := lang.Header != "" || len(lang.Tokens) > 0
		if hasRanks {
			WriteRankTable(t, filepath.Join(root, "freq"), lang.Code, lang.Header, lang.Tokens...)
		}

		if len(lang.Lowercase) > 0 {
			name := lang.AlphabetName
			if name == "" {
				name = lang.Code
			}
			upper := make([]string, 0, len(lang.Lowercase))
			for _, c := range lang.Lowercase {
				upper = append(upper, strings.ToUpper(c))
			}
			freq := lang.Frequency
			if freq == nil {
				freq = map[string]float64{}
			}
			WriteJSON(t, filepath.Join(root, "alphabets", name+".json"), alphabetFile{
				Alphabetical: upper,
				Uppercase:    upper,
				Lowercase:    lang.Lowercase,
				Frequency:    freq,
				Script:       lang.Script,
			})
			for _, c := range lang.Lowercase {
				charToLangs[c] = append(charToLangs[c], lang.Code)
			}
		}

		catalog = append(catalog, catalogEntry{
			Language:       lang.Code,
			Name:           lang.Name,
			FrequencyAvail: hasRanks,
			ScriptType:     lang.Script,
			Direction:      "ltr",
		})
	}

	if fx.CharIndex {
		for _, langs := range charToLangs {
			sort.Strings(langs)
		}
		WriteJSON(t, filepath.Join(root, "char_index.json"), map[string]any{
			"char_to_languages": charToLangs,
		})
	}

	if fx.ScriptIndex != nil {
		byScript := make(map[string][]string)
		for lang, script := range fx.ScriptIndex {
			byScript[script] = append(byScript[script], lang)
		}
		for _, langs := range byScript {
			sort.Strings(langs)
		}
		WriteJSON(t, filepath.Join(root, "script_index.json"), map[string]any{
			"lang_to_script":      fx.ScriptIndex,
			"script_to_languages": byScript,
		})
	}

	if fx.WriteCatalog {
		WriteJSON(t, filepath.Join(root, "index.json"), catalog)
	}

	return root
}

// WriteRankTable writes dir/<code>.txt with an optional header line.
func WriteRankTable(t *testing.T, dir, code, header string, tokens ...string) {
	t.Helper()

	var b strings.Builder
	if header != "" {
		b.WriteString(header)
		b.WriteByte('\n')
	}
	for _, tok := range tokens {
		b.WriteString(tok)
		b.WriteByte('\n')
	}
	WriteFile(t, filepath.Join(dir, code+".txt"), b.String())
}

// WriteJSON marshals v into path.
func WriteJSON(t *testing.T, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err, "Failed to marshal fixture to JSON")
	WriteFile(t, path, string(data))
}

// Spanish and Portuguese rank tables shared by detection tests.
var (
	SpanishTokens = []string{
		"de", "la", "que", "el", "en", "y", "a", "los", "se", "del",
		"las", "un", "por", "con", "no", "una", "su", "para", "es", "al",
		"lo", "como", "más", "pero", "sus", "le", "ya", "o", "este", "sí",
		"porque", "esta", "entre", "cuando", "muy", "sin", "sobre", "también", "me", "hasta",
		"hay", "donde", "quien", "desde", "todo", "nos", "durante", "todos", "uno", "les",
		"gracias", "bien", "casa", "día", "noche",
	}
	PortugueseTokens = []string{
		"de", "a", "o", "que", "e", "do", "da", "em", "um", "para",
		"é", "com", "não", "uma", "os", "no", "se", "na", "por", "mais",
		"as", "dos", "como", "mas", "foi", "ao", "ele", "das", "tem", "à",
		"seu", "sua", "ou", "ser", "quando", "muito", "há", "nos", "já", "está",
		"eu", "também", "só", "pelo", "pela", "até", "isso", "ela", "entre", "era",
		"todo", "obrigado", "casa", "dia", "noite",
	}
	SpanishLetters    = strings.Split("abcdefghijklmnñopqrstuvwxyzáéíóúü", "")
	PortugueseLetters = strings.Split("abcdefghijklmnopqrstuvwxyzáâãàçéêíóôõú", "")
)

// RomanceRoot writes a root with Spanish and Portuguese rank tables and
// alphabets, plus a character index and catalog.
func RomanceRoot(t *testing.T) string {
	t.Helper()

	return WriteResourceRoot(t, RootFixture{
		Languages: []LanguageFixture{
			{
				Code: "es", Name: "Spanish", Script: "Latn",
				Tokens: SpanishTokens, Lowercase: SpanishLetters, Frequency: UniformFrequency(SpanishLetters),
			},
			{
				Code: "pt", Name: "Portuguese", Script: "Latn",
				Tokens: PortugueseTokens, Lowercase: PortugueseLetters, Frequency: UniformFrequency(PortugueseLetters),
			},
		},
		CharIndex:    true,
		ScriptIndex:  map[string]string{"es": "Latn", "pt": "Latn"},
		WriteCatalog: true,
	})
}

// UniformFrequency assigns every character the same relative frequency.
func UniformFrequency(chars []string) map[string]float64 {
	freq := make(map[string]float64, len(chars))
	for _, c := range chars {
		freq[c] = 1 / float64(len(chars))
	}
	return freq
}
