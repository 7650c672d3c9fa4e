// Package support holds the step definitions of the detection feature suite.
package support

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/walang/internal/detect"
	"github.com/MeKo-Tech/walang/internal/resources"
	"github.com/MeKo-Tech/walang/internal/server"
	"github.com/MeKo-Tech/walang/internal/testutil"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Root is the resource root of the scenario, created on demand.
	Root string
	// Options are the options of the next Detect call.
	Options detect.Options

	Results []detect.Result
	Err     error

	Server       *httptest.Server
	StatusCode   int
	DetectReply  server.DetectResponse
	ResponseBody string

	tempDirs []string
}

// NewTestContext creates a context with default detection options.
func NewTestContext() *TestContext {
	return &TestContext{Options: detect.DefaultOptions()}
}

// Cleanup stops the server and removes scenario files.
func (tc *TestContext) Cleanup() error {
	if tc.Server != nil {
		tc.Server.Close()
		tc.Server = nil
	}
	var firstErr error
	for _, dir := range tc.tempDirs {
		if err := os.RemoveAll(dir); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	tc.tempDirs = nil
	return firstErr
}

// ensureRoot creates an empty resource root if the scenario has none yet.
func (tc *TestContext) ensureRoot() error {
	if tc.Root != "" {
		return nil
	}
	dir, err := os.MkdirTemp("", "walang-bdd-*")
	if err != nil {
		return fmt.Errorf("failed to create resource root: %w", err)
	}
	tc.tempDirs = append(tc.tempDirs, dir)
	tc.Root = dir
	return nil
}

// writeRankTable writes freq/<code>.txt under the scenario root.
func (tc *TestContext) writeRankTable(code, header string, tokens []string) error {
	if err := tc.ensureRoot(); err != nil {
		return err
	}
	var b strings.Builder
	if header != "" {
		b.WriteString(header + "\n")
	}
	for _, tok := range tokens {
		b.WriteString(tok + "\n")
	}
	return writeFile(resources.RankTablePath(filepath.Join(tc.Root, resources.FreqDir), code), b.String())
}

// writeAlphabet writes alphabets/<code>.json with uniform frequencies.
func (tc *TestContext) writeAlphabet(code, script string, lowercase []string) error {
	if err := tc.ensureRoot(); err != nil {
		return err
	}
	upper := make([]string, len(lowercase))
	for i, c := range lowercase {
		upper[i] = strings.ToUpper(c)
	}
	data, err := json.Marshal(map[string]any{
		"alphabetical": upper,
		"uppercase":    upper,
		"lowercase":    lowercase,
		"frequency":    testutil.UniformFrequency(lowercase),
		"script":       script,
	})
	if err != nil {
		return err
	}
	return writeFile(resources.AlphabetPath(tc.Root, code), string(data))
}

// engine builds a fresh engine over the scenario root.
func (tc *TestContext) engine() (*detect.Engine, *resources.Store, error) {
	if err := tc.ensureRoot(); err != nil {
		return nil, nil, err
	}
	store := resources.NewStore(resources.StoreConfig{Root: tc.Root})
	return detect.New(store, detect.DefaultConfig()), store, nil
}

func writeFile(path, content string) error {
	if err := testutil.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
