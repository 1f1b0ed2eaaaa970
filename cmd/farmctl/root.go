package main

import (
	"os"

	"farm-registry/internal/platform/config"
	"farm-registry/internal/platform/logger"

	"github.com/spf13/cobra"
)

// rootOptions son los flags globales.
type rootOptions struct {
	ConfigFile string
	Driver     string
	DSN        string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "farmctl",
		Short:         "Farm registry server and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "storage driver (memory|sqlite|postgres)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "storage DSN")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))

	return cmd
}

// load aplica los flags por encima de config.Load (defaults -> YAML -> env).
func (o *rootOptions) load() (config.Config, logger.Logger, error) {
	if o.ConfigFile != "" {
		if err := os.Setenv("CONFIG_FILE", o.ConfigFile); err != nil {
			return config.Config{}, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.Driver != "" {
		cfg.Database.Driver = o.Driver
	}
	if o.DSN != "" {
		cfg.Database.DSN = o.DSN
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})
	return cfg, log, nil
}
