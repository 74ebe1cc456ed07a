package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/ignoromenot/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const version = "ignoromenot v0.1.0"

var (
	cfgFile string
	verbose bool
	logger  = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ignoromenot",
	Short: "Ignoromenot - publication evidence filtering for protein tables",
	Long: `Ignoromenot filters a table of proteins and their per-protein publication
mention tables, and reports how much literature supports each protein.

Protein-level filters (existence level, last-reviewed year, free-text search)
and mention-level filters (mention fraction, publication year) are applied in
one pass. Mentions newer than a protein's last review are never counted.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number for Ignoromenot.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.ignoromenot/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Source flags
	rootCmd.PersistentFlags().String("proteins", "", "protein table (TSV, CSV or SQLite database)")
	rootCmd.PersistentFlags().String("mentions", "", "mention index (JSON file, directory of TSV/CSV tables or SQLite database)")
	rootCmd.PersistentFlags().Int("workers", 1, "concurrent mention table filters (1 runs sequentially)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("source.proteins_path", rootCmd.PersistentFlags().Lookup("proteins"))
	_ = viper.BindPFlag("source.mentions_path", rootCmd.PersistentFlags().Lookup("mentions"))
	_ = viper.BindPFlag("concurrency.workers", rootCmd.PersistentFlags().Lookup("workers"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig seeds viper with the built-in defaults, merges the config file and reads
// IGNOROMENOT_* environment variables
func initConfig() {
	if err := seedDefaults(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading defaults: %v\n", err)
		return
	}

	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		path = filepath.Join(dir, "config.yaml")
	}
	viper.SetConfigFile(path)

	// Read in environment variables that match IGNOROMENOT_*
	viper.SetEnvPrefix("IGNOROMENOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.MergeInConfig()
	switch {
	case err == nil:
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	case cfgFile != "" || !errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", path, err)
	}
}

// seedDefaults registers every key of the default configuration so environment
// variables and partial config files resolve against it
func seedDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	v.SetConfigType("yaml")
	return v.ReadConfig(bytes.NewReader(data))
}

// loadConfig resolves the effective configuration
func loadConfig() (*model.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*model.Config, error) {
	// Every key is seeded from DefaultConfig, so decoding starts from zero values and
	// lists from a config file replace the defaults instead of overlaying them
	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if cfg.Cache.Enabled && cfg.Cache.Dir == "" {
		if dir, err := configDir(); err == nil {
			cfg.Cache.Dir = filepath.Join(dir, "cache")
		}
	}
	return cfg, nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ignoromenot"), nil
}
