package resources

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Layout of a resource root.
const (
	// DefaultRootDir is the resource root used when none is configured.
	DefaultRootDir = "data"

	// FreqDir holds one rank table per language, named <code>.txt.
	FreqDir = "freq"
	// AlphabetsDir holds one alphabet file per language, named <code>.json
	// or <code>-<Script>.json.
	AlphabetsDir = "alphabets"

	CharIndexFile   = "char_index.json"
	ScriptIndexFile = "script_index.json"
	CatalogFile     = "index.json"

	rankTableExt = ".txt"
	alphabetExt  = ".json"
)

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.New("could not find project root (go.mod not found)")
}

// DefaultRoot returns the resource root used when nothing is configured:
// <project root>/data when running inside the source tree, otherwise ./data.
func DefaultRoot() string {
	if projectRoot, err := findProjectRoot(); err == nil {
		return filepath.Join(projectRoot, DefaultRootDir)
	}
	return DefaultRootDir
}

// ValidCode reports whether code is usable as a resource file stem. Codes are
// BCP-47-like tags made of letters, digits, '-' and '_'; anything else (path
// separators, dots) is rejected so a code can never escape the resource root.
func ValidCode(code string) bool {
	if code == "" || len(code) > 64 {
		return false
	}
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// RankTablePath returns the rank table path for code inside freqDir.
func RankTablePath(freqDir, code string) string {
	return filepath.Join(freqDir, code+rankTableExt)
}

// AlphabetPath returns the primary alphabet path for code under root.
func AlphabetPath(root, code string) string {
	return filepath.Join(root, AlphabetsDir, code+alphabetExt)
}

// listStems returns the sorted, de-duplicated language codes of files with
// the given extension in dir. Script-suffixed alphabet files (xx-Latn.json)
// contribute their language part.
func listStems(dir, ext string, splitScript bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ext)
		if splitScript {
			if idx := strings.Index(stem, "-"); idx > 0 && isScriptSubtag(stem[idx+1:]) {
				stem = stem[:idx]
			}
		}
		if !ValidCode(stem) {
			continue
		}
		if _, ok := seen[stem]; ok {
			continue
		}
		seen[stem] = struct{}{}
		out = append(out, stem)
	}
	sort.Strings(out)
	return out
}

// isScriptSubtag reports whether s looks like an ISO 15924 code (e.g. "Latn").
func isScriptSubtag(s string) bool {
	if len(s) != 4 {
		return false
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < 4; i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
