package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// isolate points every config search path at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	return tmpDir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "walang.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.GetViper() != viper.GetViper() {
		t.Error("NewLoader() should use the global viper instance")
	}
	if NewLoaderWithViper(nil).GetViper() == nil {
		t.Error("NewLoaderWithViper(nil) should create a viper instance")
	}
}

func TestLoadWithNoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level %q, got %q", infoLevel, cfg.LogLevel)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Detection.TopK != 3 {
		t.Errorf("Expected default top_k 3, got %d", cfg.Detection.TopK)
	}
	if !reflect.DeepEqual(cfg.Detection.CommonLanguages, DefaultConfig().Detection.CommonLanguages) {
		t.Errorf("Unexpected common languages: %v", cfg.Detection.CommonLanguages)
	}
	if cfg.Server.RateLimit.Enabled || cfg.Server.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("Unexpected rate limit: %+v", cfg.Server.RateLimit)
	}
}

func TestLoadFromSearchPath(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "log_level: debug\ndetection:\n  top_k: 5\n")

	loader := NewLoaderWithViper(viper.New())
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.LogLevel)
	}
	if cfg.Detection.TopK != 5 {
		t.Errorf("Expected top_k 5, got %d", cfg.Detection.TopK)
	}
	if cfg.Detection.WordBoost != 0.15 {
		t.Errorf("Unset keys should keep defaults, got word boost %.2f", cfg.Detection.WordBoost)
	}
	if !strings.HasSuffix(loader.GetConfigFileUsed(), "walang.yaml") {
		t.Errorf("Unexpected config file used: %q", loader.GetConfigFileUsed())
	}
}

func TestLoadWithFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
resource_root: /opt/walang/data
freq_dir: /opt/walang/freq
verbose: true
detection:
  prior_weight: 0.5
  freq_weight: 0.5
  early_termination: false
  workers: 4
  common_languages: [de, fr]
server:
  port: 9090
output:
  format: json
`)

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.ResourceRoot != "/opt/walang/data" || cfg.FreqDir != "/opt/walang/freq" {
		t.Errorf("Unexpected paths: root=%q freq=%q", cfg.ResourceRoot, cfg.FreqDir)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose true")
	}
	if cfg.Detection.PriorWeight != 0.5 || cfg.Detection.FreqWeight != 0.5 {
		t.Errorf("Unexpected weights: %+v", cfg.Detection)
	}
	if cfg.Detection.EarlyTermination {
		t.Error("Expected early termination disabled")
	}
	if cfg.Detection.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Detection.Workers)
	}
	if !reflect.DeepEqual(cfg.Detection.CommonLanguages, []string{"de", "fr"}) {
		t.Errorf("Unexpected common languages: %v", cfg.Detection.CommonLanguages)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Expected output format json, got %q", cfg.Output.Format)
	}
}

func TestLoadWithMissingFile(t *testing.T) {
	dir := isolate(t)

	_, err := NewLoaderWithViper(viper.New()).LoadWithFile(filepath.Join(dir, "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Expected missing file error, got %v", err)
	}
}

func TestLoadWithInvalidValues(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "detection:\n  top_k: -2\n")

	_, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("Expected validation error, got %v", err)
	}

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFileWithoutValidation(path)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.Detection.TopK != -2 {
		t.Errorf("Expected raw top_k -2, got %d", cfg.Detection.TopK)
	}
}

func TestLoadWithMalformedFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "detection: [unclosed\n")

	if _, err := NewLoaderWithViper(viper.New()).LoadWithFile(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("WALANG_LOG_LEVEL", "warn")
	t.Setenv("WALANG_DETECTION_TOP_K", "9")
	t.Setenv("WALANG_DETECTION_USE_CHARACTER_FALLBACK", "false")
	t.Setenv("WALANG_SERVER_PORT", "7070")
	t.Setenv("WALANG_DETECTION_COMMON_LANGUAGES", "pl,cs")
	t.Setenv("WALANG_SERVER_RATE_LIMIT_ENABLED", "true")
	t.Setenv("WALANG_SERVER_RATE_LIMIT_REQUESTS_PER_MINUTE", "5")

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level warn, got %q", cfg.LogLevel)
	}
	if cfg.Detection.TopK != 9 {
		t.Errorf("Expected top_k 9, got %d", cfg.Detection.TopK)
	}
	if cfg.Detection.UseCharacterFallback {
		t.Error("Expected character fallback disabled")
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected port 7070, got %d", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Detection.CommonLanguages, []string{"pl", "cs"}) {
		t.Errorf("Unexpected common languages: %v", cfg.Detection.CommonLanguages)
	}
}

func TestLegacyEnvironmentNames(t *testing.T) {
	isolate(t)
	t.Setenv("WA_FREQ_PRIOR_WEIGHT", "0.4")
	t.Setenv("WA_FREQ_OVERLAP_WEIGHT", "0.6")
	t.Setenv("WORLDALPHABETS_FREQ_DIR", "/legacy/freq")

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Detection.PriorWeight != 0.4 {
		t.Errorf("Expected prior weight 0.4, got %.2f", cfg.Detection.PriorWeight)
	}
	if cfg.Detection.FreqWeight != 0.6 {
		t.Errorf("Expected freq weight 0.6, got %.2f", cfg.Detection.FreqWeight)
	}
	if cfg.FreqDir != "/legacy/freq" {
		t.Errorf("Expected freq dir /legacy/freq, got %q", cfg.FreqDir)
	}
}

func TestPrefixedEnvironmentBeatsLegacy(t *testing.T) {
	isolate(t)
	t.Setenv("WA_FREQ_PRIOR_WEIGHT", "0.4")
	t.Setenv("WALANG_DETECTION_PRIOR_WEIGHT", "0.7")

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Detection.PriorWeight != 0.7 {
		t.Errorf("Expected prior weight 0.7, got %.2f", cfg.Detection.PriorWeight)
	}
}

func TestEnvironmentBeatsFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "detection:\n  top_k: 2\n")
	t.Setenv("WALANG_DETECTION_TOP_K", "4")

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.Detection.TopK != 4 {
		t.Errorf("Expected top_k 4 from env, got %d", cfg.Detection.TopK)
	}
}

func TestLoaderGetSet(t *testing.T) {
	loader := NewLoaderWithViper(viper.New())
	loader.Set("output.format", "csv")

	if got := loader.GetString("output.format"); got != "csv" {
		t.Errorf("GetString() = %q, want csv", got)
	}
	if got := loader.Get("output.format"); got != "csv" {
		t.Errorf("Get() = %v, want csv", got)
	}
}

func TestGetResolvedConfig(t *testing.T) {
	isolate(t)
	loader := NewLoaderWithViper(viper.New())
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	settings := loader.GetResolvedConfig()
	detection, ok := settings["detection"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected detection section, got %T", settings["detection"])
	}
	if _, ok := detection["word_boost"]; !ok {
		t.Error("Expected word_boost in resolved settings")
	}
}

func TestPrintConfigInfo(t *testing.T) {
	dir := isolate(t)
	loader := NewLoaderWithViper(viper.New())

	var before bytes.Buffer
	loader.PrintConfigInfo(&before)
	if !strings.Contains(before.String(), "# config file: (none)\n") {
		t.Errorf("Expected no config file before loading, got %q", before.String())
	}

	path := writeConfig(t, dir, "log_level: warn\n")
	if _, err := loader.LoadWithFile(path); err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}

	var after bytes.Buffer
	loader.PrintConfigInfo(&after)
	out := after.String()
	for _, want := range []string{
		"# config file: " + path + "\n",
		"# search paths: [. ",
		"# environment prefix: WALANG_\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got %q", want, out)
		}
	}
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "generated.yaml")

	if err := GenerateDefaultConfigFile(path); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() unexpected error: %v", err)
	}

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	if err != nil {
		t.Fatalf("Loading generated file failed: %v", err)
	}
	if cfg.Detection.HighConfidenceThreshold != 0.8 {
		t.Errorf("Expected high confidence threshold 0.8, got %.2f", cfg.Detection.HighConfidenceThreshold)
	}
}

func TestGetConfigSearchPaths(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	paths := GetConfigSearchPaths()
	if paths[0] != "." {
		t.Errorf("Expected current directory first, got %q", paths[0])
	}

	want := map[string]bool{filepath.Join(tmpDir, "walang"): false, "/etc/walang": false}
	for _, p := range paths {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for p, found := range want {
		if !found {
			t.Errorf("Expected search path %q in %v", p, paths)
		}
	}
}
