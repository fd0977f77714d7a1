// Package cmd contains all CLI commands for the dhfr tool.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/f3rmion/dhfr/internal/config"
	"github.com/f3rmion/dhfr/internal/logging"
	"github.com/f3rmion/dhfr/internal/predict"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dhfr",
	Short: "Computational Drug Discovery - DHFR potency prediction",
	Long: `dhfr submits compounds, written as canonical SMILES, to a DHFR potency
prediction service and shows the predicted drug properties.

Target disease:   Tuberculosis (TB)
Target inhibitor: Dihydrofolate reductase (DHFR)

Running 'dhfr' without arguments launches the interactive form.`,
	SilenceUsage: true,
	RunE:         runInteractive,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/dhfr/config.yaml)")
	pf.String("api-url", config.DefaultBaseURL, "prediction service base URL")
	pf.Duration("timeout", config.DefaultTimeout, "prediction request timeout, 0 disables it")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-file", "", "log file (default is stderr, or $HOME/.config/dhfr/dhfr.log for the interactive form)")
	pf.Bool("verbose", false, "verbose output")

	viper.BindPFlag("api.base_url", pf.Lookup("api-url"))
	viper.BindPFlag("api.timeout", pf.Lookup("timeout"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.file", pf.Lookup("log-file"))
	viper.BindPFlag("verbose", pf.Lookup("verbose"))
}

// initConfig reads in ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("DHFR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// configPath returns the config file in use.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("finding config directory: %w", err)
	}
	return config.FilePath(dir), nil
}

// loadConfig merges the config file with flags and DHFR_* environment
// variables. Flags and environment win over the file.
func loadConfig() (config.Config, error) {
	path, err := configPath()
	if err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if viper.IsSet("api.base_url") {
		cfg.API.BaseURL = viper.GetString("api.base_url")
	}
	if viper.IsSet("api.timeout") {
		cfg.API.Timeout = viper.GetDuration("api.timeout")
	}
	if viper.IsSet("log.level") {
		cfg.Log.Level = viper.GetString("log.level")
	}
	if viper.IsSet("log.file") {
		cfg.Log.File = viper.GetString("log.file")
	}
	if viper.IsSet("serve.addr") {
		cfg.Serve.Addr = viper.GetString("serve.addr")
	}
	if viper.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup loads the configuration and builds the logger and client every
// command shares. Full-screen commands log to a file so the terminal stays
// clean.
func setup(fullScreen bool) (config.Config, *zap.Logger, *predict.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, nil, err
	}

	if fullScreen && cfg.Log.File == "" {
		dir, err := config.EnsureConfigDir()
		if err != nil {
			return cfg, nil, nil, fmt.Errorf("creating config directory: %w", err)
		}
		cfg.Log.File = config.LogPath(dir)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return cfg, nil, nil, err
	}

	client, err := predict.NewClient(cfg.API.BaseURL,
		predict.WithTimeout(cfg.API.Timeout),
		predict.WithLogger(logger.Named("predict")),
	)
	if err != nil {
		logger.Sync()
		return cfg, nil, nil, fmt.Errorf("creating prediction client: %w", err)
	}

	return cfg, logger, client, nil
}
