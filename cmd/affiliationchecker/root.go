package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"AffiliationChecker/internal/config"
	"AffiliationChecker/internal/logging"
)

// commandContext loads configuration once per invocation and applies persistent flags.
type commandContext struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	c.cfg = &cfg
	c.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return c.cfg, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "affiliationchecker",
		Short:         "Screen researchers for institutional affiliations with target countries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipConfigLoad"] == "true" {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.configPath, "config", "", "Configuration file path (or AFFILIATION_CHECKER_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newScreenCommand(ctx))
	rootCmd.AddCommand(newCountriesCommand())
	rootCmd.AddCommand(newVerifyNameCommand())

	return rootCmd
}
