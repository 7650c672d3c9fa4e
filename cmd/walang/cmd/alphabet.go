package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/walang/internal/resources"
)

// alphabetReport is the JSON form of the alphabet command.
type alphabetReport struct {
	Code              string              `json:"code"`
	Script            string              `json:"script,omitempty"`
	Lowercase         []string            `json:"lowercase"`
	Uppercase         []string            `json:"uppercase,omitempty"`
	WithDiacritics    []string            `json:"with_diacritics"`
	DiacriticVariants map[string][]string `json:"diacritic_variants,omitempty"`
	TopCharacters     []charFrequency     `json:"top_characters,omitempty"`
}

type charFrequency struct {
	Char      string  `json:"char"`
	Frequency float64 `json:"frequency"`
}

// alphabetCmd represents the alphabet command.
var alphabetCmd = &cobra.Command{
	Use:   "alphabet <code>",
	Short: "Show the alphabet and diacritics of a language",
	Long: `Show the alphabet resource of a language: its letters, the letters that
carry diacritics with their base forms, and the most frequent characters.

Examples:
  walang alphabet pl
  walang alphabet sr --format json`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != outputFormatText && format != outputFormatJSON {
			return fmt.Errorf("invalid output format: %s (must be one of: text, json)", format)
		}
		top, _ := cmd.Flags().GetInt("top")

		code := args[0]
		if !resources.ValidCode(code) {
			return fmt.Errorf("invalid language code: %q", code)
		}

		cfg := GetConfig()
		_, store := newEngine(cfg)
		alpha, ok := store.Alphabet(code)
		if !ok {
			return fmt.Errorf("no alphabet for %q under %s", code, store.Root())
		}

		report := buildAlphabetReport(code, alpha, top)
		out := cmd.OutOrStdout()
		if format == outputFormatJSON {
			bts, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			_, err = fmt.Fprintln(out, string(bts))
			return err
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Language: %s\n", report.Code)
		if report.Script != "" {
			fmt.Fprintf(&sb, "Script: %s\n", report.Script)
		}
		fmt.Fprintf(&sb, "Letters (%d): %s\n", len(report.Lowercase), strings.Join(report.Lowercase, " "))
		if len(report.WithDiacritics) > 0 {
			fmt.Fprintf(&sb, "With diacritics (%d): %s\n", len(report.WithDiacritics), strings.Join(report.WithDiacritics, " "))
		}
		if len(report.DiacriticVariants) > 0 {
			sb.WriteString("Variants:\n")
			for _, base := range sortedKeys(report.DiacriticVariants) {
				fmt.Fprintf(&sb, "  %s: %s\n", base, strings.Join(report.DiacriticVariants[base], " "))
			}
		}
		if len(report.TopCharacters) > 0 {
			sb.WriteString("Most frequent:\n")
			for _, cf := range report.TopCharacters {
				fmt.Fprintf(&sb, "  %s  %.4f\n", cf.Char, cf.Frequency)
			}
		}
		_, err := fmt.Fprint(out, sb.String())
		return err
	},
}

func buildAlphabetReport(code string, alpha *resources.Alphabet, top int) alphabetReport {
	report := alphabetReport{
		Code:              code,
		Script:            alpha.Script,
		Lowercase:         alpha.Lowercase,
		Uppercase:         alpha.Uppercase,
		WithDiacritics:    resources.CharactersWithDiacritics(alpha.Lowercase),
		DiacriticVariants: resources.DiacriticVariants(alpha.Lowercase),
	}
	if report.Lowercase == nil {
		report.Lowercase = []string{}
	}
	if report.WithDiacritics == nil {
		report.WithDiacritics = []string{}
	}

	freq := make([]charFrequency, 0, len(alpha.Frequency))
	for c, f := range alpha.Frequency {
		freq = append(freq, charFrequency{Char: c, Frequency: f})
	}
	sort.Slice(freq, func(i, j int) bool {
		if freq[i].Frequency != freq[j].Frequency {
			return freq[i].Frequency > freq[j].Frequency
		}
		return freq[i].Char < freq[j].Char
	})
	if top >= 0 && len(freq) > top {
		freq = freq[:top]
	}
	report.TopCharacters = freq
	return report
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(alphabetCmd)
	alphabetCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	alphabetCmd.Flags().Int("top", 10, "number of most frequent characters to show")
}
