package cmd

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MeKo-Tech/walang/internal/config"
	"github.com/MeKo-Tech/walang/internal/detect"
	"github.com/MeKo-Tech/walang/internal/hint"
	"github.com/MeKo-Tech/walang/internal/resources"
	"github.com/MeKo-Tech/walang/internal/textsource"
)

const (
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
	outputFormatText = "text"
)

// detectCmd represents the detect command.
var detectCmd = &cobra.Command{
	Use:   "detect [text...]",
	Short: "Detect the language of a text",
	Long: `Detect the most likely languages of a text.

The text is taken from the arguments, from --file (plain UTF-8 text or PDF),
or from standard input when neither is given.

Examples:
  walang detect "Dziękuję bardzo"
  walang detect --candidates es,pt --prior pt=0.2 "obrigado por tudo"
  walang detect --file report.pdf --pages 2-4 --format json
  echo "Merci beaucoup" | walang detect --top-k 1`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runDetect,
}

// detectOutput is the JSON form of one detection.
type detectOutput struct {
	Source     *sourceInfo        `json:"source,omitempty"`
	Results    []detect.Result    `json:"results"`
	Candidates []string           `json:"candidates,omitempty"`
	Priors     map[string]float64 `json:"priors,omitempty"`
}

type sourceInfo struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Pages int    `json:"pages,omitempty"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	format := cfg.Output.Format
	if !contains([]string{outputFormatText, outputFormatJSON, outputFormatCSV}, format) {
		return fmt.Errorf("invalid output format: %s (must be one of: text, json, csv)", format)
	}

	text, source, err := detectInput(cmd, args)
	if err != nil {
		return err
	}

	engine, store := newEngine(cfg)

	opts, err := detectOptions(cmd, cfg, engine, text)
	if err != nil {
		return err
	}

	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		opts.Progress = progressSink(cmd.ErrOrStderr())
	}

	results, err := engine.Detect(text, opts)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	out := detectOutput{Source: source, Results: results, Priors: opts.Priors}
	if explain, _ := cmd.Flags().GetBool("explain"); explain {
		out.Candidates = opts.Candidates
		if out.Candidates == nil {
			out.Candidates = engine.Candidates(text)
		}
	}

	rendered, err := renderDetection(out, format, cfg.Output.ScorePrecision, store)
	if err != nil {
		return err
	}

	if outputFile, _ := cmd.Flags().GetString("output"); outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(rendered), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile)
		return err
	}
	if _, err := io.WriteString(cmd.OutOrStdout(), rendered); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// detectInput returns the text to detect and, for file input, a description
// of where it came from.
func detectInput(cmd *cobra.Command, args []string) (string, *sourceInfo, error) {
	file, _ := cmd.Flags().GetString("file")
	pages, _ := cmd.Flags().GetString("pages")

	switch {
	case file != "" && len(args) > 0:
		return "", nil, errors.New("provide either text arguments or --file, not both")
	case file != "":
		doc, err := textsource.ReadFile(file, pages)
		if err != nil {
			return "", nil, err
		}
		return doc.Text, &sourceInfo{Path: doc.Path, Kind: doc.Kind, Pages: doc.Pages}, nil
	case pages != "":
		return "", nil, errors.New("--pages requires --file")
	case len(args) > 0:
		return strings.Join(args, " "), nil, nil
	}

	in := cmd.InOrStdin()
	if isTerminal(in) {
		return "", nil, errors.New("no input text provided (pass text, --file, or pipe to stdin)")
	}
	text, err := textsource.Read(in, textsource.DefaultMaxBytes)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return text, nil, nil
}

// detectOptions assembles the per-call options from cfg and the flags.
func detectOptions(cmd *cobra.Command, cfg *config.Config, engine *detect.Engine, text string) (detect.Options, error) {
	opts := cfg.ToDetectOptions()
	flags := cmd.Flags()

	if flags.Changed("candidates") {
		raw, _ := flags.GetString("candidates")
		candidates, err := parseCandidates(raw)
		if err != nil {
			return opts, err
		}
		opts.Candidates = candidates
	}
	if flags.Changed("top-k") {
		opts.TopK, _ = flags.GetInt("top-k")
	}
	if opts.TopK < 0 {
		return opts, fmt.Errorf("invalid top-k: %d (must not be negative)", opts.TopK)
	}
	if noFallback, _ := flags.GetBool("no-fallback"); noFallback {
		opts.UseCharacterFallback = false
	}
	if noEarlyStop, _ := flags.GetBool("no-early-stop"); noEarlyStop {
		opts.EnableEarlyTermination = false
	}

	if auto, _ := flags.GetBool("auto-priors"); auto {
		pool := opts.Candidates
		if pool == nil {
			pool = engine.Candidates(text)
		}
		opts.Priors = hint.AutoPriors(text, pool, cfg.Detection.AutoPriorScale)
		if g, ok := hint.GuessLanguage(text); ok {
			slog.Debug("trigram guess", "language", g.Language, "confidence", g.Confidence)
		}
	}

	rawPriors, _ := flags.GetStringArray("prior")
	explicit, err := parsePriors(rawPriors)
	if err != nil {
		return opts, err
	}
	if len(explicit) > 0 {
		if opts.Priors == nil {
			opts.Priors = make(map[string]float64, len(explicit))
		}
		for code, p := range explicit {
			opts.Priors[code] = p
		}
	}
	return opts, nil
}

// parseCandidates splits a comma separated code list. An empty list is kept
// empty, which yields no results.
func parseCandidates(raw string) ([]string, error) {
	candidates := []string{}
	for _, part := range strings.Split(raw, ",") {
		code := strings.TrimSpace(part)
		if code == "" {
			continue
		}
		if !resources.ValidCode(code) {
			return nil, fmt.Errorf("invalid candidate language code: %q", code)
		}
		candidates = append(candidates, code)
	}
	return candidates, nil
}

// parsePriors parses code=value pairs. Values may be comma separated within
// one flag as well.
func parsePriors(values []string) (map[string]float64, error) {
	priors := make(map[string]float64)
	for _, v := range values {
		for _, pair := range strings.Split(v, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			code, raw, ok := strings.Cut(pair, "=")
			code = strings.TrimSpace(code)
			if !ok || !resources.ValidCode(code) {
				return nil, fmt.Errorf("invalid prior %q (expected code=value)", pair)
			}
			p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil || math.IsNaN(p) || p < 0 || p > 1 {
				return nil, fmt.Errorf("invalid prior for %q: %s (must be between 0 and 1)", code, raw)
			}
			priors[code] = p
		}
	}
	return priors, nil
}

// progressSink draws a bar on terminals and logs progress otherwise.
func progressSink(w io.Writer) detect.ProgressSink {
	if isTerminal(w) {
		return detect.NewConsoleProgressSink(w, "walang ")
	}
	return detect.NewLogProgressSink(slog.Default(), slog.LevelInfo, "progress: ")
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func renderDetection(out detectOutput, format string, precision int, store *resources.Store) (string, error) {
	switch format {
	case outputFormatJSON:
		if out.Results == nil {
			out.Results = []detect.Result{}
		}
		bts, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(bts) + "\n", nil

	case outputFormatCSV:
		var sb strings.Builder
		w := csv.NewWriter(&sb)
		_ = w.Write([]string{"rank", "language", "score", "method"})
		for i, r := range out.Results {
			_ = w.Write([]string{
				strconv.Itoa(i + 1),
				r.Language,
				strconv.FormatFloat(r.Score, 'f', precision, 64),
				string(r.Method),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("format csv failed: %w", err)
		}
		return sb.String(), nil
	}

	var sb strings.Builder
	if out.Source != nil {
		fmt.Fprintf(&sb, "%s (%s", out.Source.Path, out.Source.Kind)
		if out.Source.Pages > 0 {
			fmt.Fprintf(&sb, ", %d pages", out.Source.Pages)
		}
		sb.WriteString(")\n")
	}
	if out.Candidates != nil {
		fmt.Fprintf(&sb, "Candidates (%d): %s\n", len(out.Candidates), strings.Join(out.Candidates, ", "))
	}
	if len(out.Results) == 0 {
		sb.WriteString("No language detected\n")
		return sb.String(), nil
	}
	catalog, _ := store.Catalog()
	for i, r := range out.Results {
		name := r.Language
		if entry, ok := catalog.Lookup(r.Language); ok && entry.Name != "" {
			name = entry.Name
		}
		fmt.Fprintf(&sb, "%d. %-8s %-20s %s  %s\n",
			i+1, r.Language, name, strconv.FormatFloat(r.Score, 'f', precision, 64), r.Method)
	}
	return sb.String(), nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().String("file", "", "read text from a file (plain text or PDF)")
	detectCmd.Flags().String("pages", "", "PDF page selection, e.g. 1-3,5 (requires --file)")
	detectCmd.Flags().String("candidates", "", "comma-separated candidate language codes (default: pruned universe)")
	detectCmd.Flags().StringArray("prior", nil, "prior confidence per language as code=value (repeatable)")
	detectCmd.Flags().IntP("top-k", "k", 3, "maximum number of results")
	detectCmd.Flags().Bool("no-fallback", false, "disable character-based fallback scoring")
	detectCmd.Flags().Bool("no-early-stop", false, "score every candidate even after a high-confidence match")
	detectCmd.Flags().Bool("auto-priors", false, "derive priors from a trigram language guess")
	detectCmd.Flags().Bool("progress", false, "report progress on stderr")
	detectCmd.Flags().Bool("explain", false, "include the candidate list in the output")
	detectCmd.Flags().StringP("format", "f", "text", "output format (text, json, csv)")
	detectCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	detectCmd.Flags().Int("workers", 1, "number of candidates scored concurrently")

	bindFlags(detectCmd.Flags(), []flagBinding{
		{key: "output.format", flag: "format"},
		{key: "detection.workers", flag: "workers"},
	})
}
