package resources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/MeKo-Tech/walang/internal/tokenize"
)

// CharIndex maps a normalized character to the languages whose alphabet
// contains it.
type CharIndex struct {
	CharToLanguages map[string][]string `json:"char_to_languages"`
}

// Languages returns the languages recorded for char.
func (ci *CharIndex) Languages(char string) []string {
	if ci == nil {
		return nil
	}
	return ci.CharToLanguages[char]
}

// ScriptIndex maps languages to ISO 15924 script codes and back.
type ScriptIndex struct {
	LangToScript      map[string]string   `json:"lang_to_script"`
	ScriptToLanguages map[string][]string `json:"script_to_languages"`
}

// Script returns the script of lang.
func (si *ScriptIndex) Script(lang string) (string, bool) {
	if si == nil {
		return "", false
	}
	s, ok := si.LangToScript[lang]
	return s, ok && s != ""
}

// Languages returns the languages written in script.
func (si *ScriptIndex) Languages(script string) []string {
	if si == nil {
		return nil
	}
	return si.ScriptToLanguages[script]
}

// CatalogEntry describes one language of the resource catalog.
type CatalogEntry struct {
	Language       string `json:"language"`
	Name           string `json:"language-name,omitempty"`
	FrequencyAvail bool   `json:"frequency-avail,omitempty"`
	ScriptType     string `json:"script-type,omitempty"`
	Direction      string `json:"direction,omitempty"`
	Script         string `json:"script,omitempty"`
}

// Catalog is the list of languages described by index.json.
type Catalog []CatalogEntry

// Codes returns the unique language codes of the catalog, sorted.
func (c Catalog) Codes() []string {
	set := make(tokenize.Set, len(c))
	for _, e := range c {
		if ValidCode(e.Language) {
			set[e.Language] = struct{}{}
		}
	}
	return set.Sorted()
}

// Lookup returns the first entry for code.
func (c Catalog) Lookup(code string) (CatalogEntry, bool) {
	for _, e := range c {
		if e.Language == code {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// ReadCharIndex loads <root>/char_index.json. Keys are normalized so they
// match the output of tokenize.CharSet.
func ReadCharIndex(root string) (*CharIndex, error) {
	var ci CharIndex
	if err := readJSON(filepath.Join(root, CharIndexFile), &ci); err != nil {
		return nil, err
	}
	normalized := make(map[string][]string, len(ci.CharToLanguages))
	for c, langs := range ci.CharToLanguages {
		n := tokenize.Normalize(c)
		if n == "" {
			continue
		}
		normalized[n] = append(normalized[n], langs...)
	}
	ci.CharToLanguages = normalized
	return &ci, nil
}

// ReadScriptIndex loads <root>/script_index.json.
func ReadScriptIndex(root string) (*ScriptIndex, error) {
	var si ScriptIndex
	if err := readJSON(filepath.Join(root, ScriptIndexFile), &si); err != nil {
		return nil, err
	}
	if si.ScriptToLanguages == nil && len(si.LangToScript) > 0 {
		si.ScriptToLanguages = make(map[string][]string)
		for lang, script := range si.LangToScript {
			si.ScriptToLanguages[script] = append(si.ScriptToLanguages[script], lang)
		}
		for _, langs := range si.ScriptToLanguages {
			sort.Strings(langs)
		}
	}
	return &si, nil
}

// ReadCatalog loads <root>/index.json.
func ReadCatalog(root string) (Catalog, error) {
	var c Catalog
	if err := readJSON(filepath.Join(root, CatalogFile), &c); err != nil {
		return nil, err
	}
	return c, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // fixed file names under the resource root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrResourceMissing, path)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrResourceMalformed, path, err)
	}
	return nil
}
