package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/walang/internal/resources"
)

// languageRow is one line of the languages listing.
type languageRow struct {
	Code         string `json:"code"`
	Name         string `json:"name,omitempty"`
	Script       string `json:"script,omitempty"`
	Direction    string `json:"direction,omitempty"`
	HasFrequency bool   `json:"frequency_available"`
	HasAlphabet  bool   `json:"alphabet_available"`
}

// languagesCmd represents the languages command.
var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the languages known to the resource directory",
	Long: `List every language of the resource catalog, or of the alphabet and
rank table files when no catalog exists.

Examples:
  walang languages
  walang languages --script Cyrl
  walang languages --format json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != outputFormatText && format != outputFormatJSON {
			return fmt.Errorf("invalid output format: %s (must be one of: text, json)", format)
		}
		script, _ := cmd.Flags().GetString("script")

		cfg := GetConfig()
		_, store := newEngine(cfg)
		rows := languageRows(store, script)

		out := cmd.OutOrStdout()
		if format == outputFormatJSON {
			bts, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			_, err = fmt.Fprintln(out, string(bts))
			return err
		}

		if len(rows) == 0 {
			_, err := fmt.Fprintf(out, "No languages found under %s\n", store.Root())
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "CODE\tNAME\tSCRIPT\tDIR\tRANKS\tALPHABET")
		for _, r := range rows {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.Code, r.Name, r.Script, r.Direction, yesNo(r.HasFrequency), yesNo(r.HasAlphabet))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "%d languages\n", len(rows))
		return err
	},
}

// languageRows describes the language universe of store, optionally only the
// languages written in script.
func languageRows(store *resources.Store, script string) []languageRow {
	catalog, _ := store.Catalog()
	scripts, _ := store.ScriptIndex()

	rows := make([]languageRow, 0)
	for _, code := range store.Languages() {
		row := languageRow{Code: code}
		if entry, ok := catalog.Lookup(code); ok {
			row.Name = entry.Name
			row.Direction = entry.Direction
			row.Script = entry.Script
			if row.Script == "" {
				row.Script = entry.ScriptType
			}
		}
		if row.Script == "" && scripts != nil {
			row.Script, _ = scripts.Script(code)
		}
		if script != "" && !strings.EqualFold(row.Script, script) {
			continue
		}
		row.HasFrequency = fileExists(resources.RankTablePath(store.FreqDir(), code))
		_, row.HasAlphabet = store.Alphabet(code)
		rows = append(rows, row)
	}
	return rows
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	languagesCmd.Flags().String("script", "", "only list languages written in this script (e.g. Latn, Cyrl)")
	languagesCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
}
