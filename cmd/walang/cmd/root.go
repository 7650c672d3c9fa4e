package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/walang/internal/config"
	"github.com/MeKo-Tech/walang/internal/detect"
	"github.com/MeKo-Tech/walang/internal/resources"
	"github.com/MeKo-Tech/walang/internal/version"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "walang",
	Short: "Identify the language of a text",
	Long: `walang identifies the natural language of a text by combining word
frequency rank tables with per-language alphabets and character frequencies.

Word evidence is tried first; when no language clears the word threshold the
text is scored against alphabets instead, so short or unusual inputs still get
an answer.

Resources are read from a directory containing:
  freq/<code>.txt           ranked word (or bigram) lists
  alphabets/<code>.json     alphabets and character frequencies
  index.json                optional language catalog
  char_index.json           optional character to language index
  script_index.json         optional language to script index

Examples:
  walang detect "Hola, ¿cómo estás?"
  walang detect --file article.pdf --pages 1-3 --format json
  walang languages --script Cyrl
  walang serve --port 8080`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.PersistentFlags().GetBool("version")
		if v {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "walang version "+version.String())
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/walang, /etc/walang)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("resource-root", "",
		"resource directory (default <project>/data or ./data, env WALANG_RESOURCE_ROOT)")
	rootCmd.PersistentFlags().String("freq-dir", "",
		"rank table directory (default <resource-root>/freq, env WORLDALPHABETS_FREQ_DIR)")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	bindFlags(rootCmd.PersistentFlags(), []flagBinding{
		{key: "verbose", flag: "verbose"},
		{key: "log_level", flag: "log-level"},
		{key: "resource_root", flag: "resource-root"},
		{key: "freq_dir", flag: "freq-dir"},
	})

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}

		logger := newLogger(cmd.ErrOrStderr(), globalConfig)
		slog.SetDefault(logger)

		for _, w := range globalConfig.Warnings() {
			logger.Warn("configuration warning", "warning", w)
		}
		return nil
	}
}

// newLogger builds the JSON logger for cfg. Logs go to w so that command
// output on stdout stays machine readable.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	return nil
}

// GetConfig returns the global configuration.
func GetConfig() *config.Config {
	if globalConfig == nil {
		if err := initConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			defaults := config.DefaultConfig()
			return &defaults
		}
	}

	// Reload configuration to ensure CLI flags are included
	// This is necessary because flag binding happens after initial config loading
	var cfg config.Config
	if err := GetConfigLoader().GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}
	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

// newEngine opens the resource store described by cfg and builds an engine.
func newEngine(cfg *config.Config) (*detect.Engine, *resources.Store) {
	logger := slog.Default()
	store := resources.NewStore(cfg.ToStoreConfig(logger))
	return detect.New(store, cfg.ToDetectConfig(logger)), store
}

type flagBinding struct {
	key   string
	flag  string
	flags *pflag.FlagSet
}

// boundFlags remembers every viper binding so they can be restored after
// viper.Reset.
var boundFlags []flagBinding

func bindFlags(flags *pflag.FlagSet, bindings []flagBinding) {
	for _, binding := range bindings {
		binding.flags = flags
		boundFlags = append(boundFlags, binding)
		bindFlag(binding)
	}
}

func bindFlag(binding flagBinding) {
	if err := viper.BindPFlag(binding.key, binding.flags.Lookup(binding.flag)); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
	}
}

// rebindFlags re-applies all flag bindings to the global viper instance.
func rebindFlags() {
	for _, binding := range boundFlags {
		bindFlag(binding)
	}
}
