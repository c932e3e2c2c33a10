package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/slipscan/internal/config"
	"github.com/MeKo-Tech/slipscan/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
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
	Use:   "slipscan",
	Short: "Extract structured fields from bank deposit slips",
	Long: `slipscan reads scanned bank deposit slips and pulls out the account number,
amount in figures and words, depositor name, date and transaction reference.

Images are cleaned up with several preprocessing strategies, recognized with
Tesseract under a few page segmentation modes, and the best transcription is
handed to a pattern-based field extractor. Plain-text transcriptions can be
processed directly without any OCR backend.

Examples:
  slipscan image slip.jpg
  slipscan batch scans/ --recursive --output-dir results
  slipscan text transcription.txt --format json
  slipscan serve --port 8080`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.Flags().GetBool("version")
		if v {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "slipscan "+version.String())
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
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $XDG_CONFIG_HOME/slipscan, /etc/slipscan)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("version", false, "print version information and exit")

	bindRootFlags()

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if globalConfig == nil {
			initConfig()
		}
		if globalConfig == nil {
			return fmt.Errorf("error loading configuration: %w", configErr)
		}
		slog.SetDefault(newLogger(globalConfig))
		return nil
	}
}

// bindRootFlags binds the global flags to their viper keys.
func bindRootFlags() {
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// configErr keeps the last load failure so PersistentPreRunE can report it
// through cobra instead of exiting the process.
var configErr error

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configLoader = config.NewLoader()
	globalConfig, configErr = configLoader.LoadWithFile(cfgFile)
}

// newLogger builds the JSON logger on stderr so that results written to
// stdout stay machine readable.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg),
	}))
}

func logLevel(cfg *config.Config) slog.Level {
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConfig returns the global configuration, re-read from viper so that
// flags bound after the initial load are included.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
		if globalConfig == nil {
			fallback := config.DefaultConfig()
			return &fallback
		}
	}

	var cfg config.Config
	if err := GetConfigLoader().GetViper().Unmarshal(&cfg); err != nil {
		slog.Warn("Error unmarshaling updated configuration", "error", err)
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
