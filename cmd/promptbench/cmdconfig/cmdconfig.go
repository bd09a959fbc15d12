// Package cmdconfig loads configuration for promptbench subcommands and layers
// the shared command-line flags on top of it.
package cmdconfig

import (
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/promptbench/pkg/config"
	"github.com/papercomputeco/promptbench/pkg/logger"
)

// Flags are the flags shared by every subcommand that talks to an endpoint or
// the archive.
type Flags struct {
	ConfigPath string
	URL        string
	Token      string
	Archive    string
	Debug      bool
}

// Register adds the shared flags to cmd.
func (f *Flags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ConfigPath, "config", config.DefaultPath, "Path to TOML config file")
	cmd.Flags().StringVar(&f.URL, "url", "", "Generation server base URL (default http://localhost:5001)")
	cmd.Flags().StringVar(&f.Token, "token", "", "Bearer token for the generation server")
	cmd.Flags().StringVar(&f.Archive, "archive", "", "Path to SQLite run archive")
	cmd.Flags().BoolVar(&f.Debug, "debug", false, "Enable debug logging")
}

// Load reads the config file and environment, then applies any flag the user
// set explicitly.
func (f *Flags) Load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	if cmd.Flags().Changed("url") {
		cfg.Endpoint.URL = f.URL
	}
	if cmd.Flags().Changed("token") {
		cfg.Endpoint.Token = f.Token
	}
	if cmd.Flags().Changed("archive") {
		cfg.Archive.Path = f.Archive
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = f.Debug
	}

	return cfg, nil
}

// Logger returns a stderr logger honouring cfg.Debug. Level colours are only
// used when stderr supports them.
func Logger(cmd *cobra.Command, cfg config.Config) *zap.Logger {
	w := cmd.ErrOrStderr()
	return logger.New(logger.Options{
		Debug:  cfg.Debug,
		Output: w,
		Color:  termenv.NewOutput(w).Profile != termenv.Ascii,
	})
}
