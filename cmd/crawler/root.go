package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfsync/backend/config"
	"github.com/shelfsync/backend/internal/app"
	"github.com/shelfsync/backend/internal/infrastructure/logger"
)

const version = "1.0.0"

// cli carries the flags and dependencies shared by every subcommand.
type cli struct {
	cfgFile string
	envFile string
	debug   bool

	cfg *config.Config
	log logger.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "crawler",
		Short:         "Extract and validate catalog product pages",
		Long:          `crawler turns catalog product pages into canonical product records, validates them and reports batch quality.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./config.yaml, ./config/config.yaml or /etc/shelfsync/config.yaml)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "enable debug logging")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crawler version %s\n", version)
		},
	})
	root.AddCommand(newExtractCommand(c))
	root.AddCommand(newBatchCommand(c))
	root.AddCommand(newFailedCommand(c))

	return root
}

// init loads the environment, the configuration and the logger.
func (c *cli) init() error {
	if err := config.LoadEnvFile(c.envFile); err != nil {
		return err
	}
	cfg, err := config.LoadFrom(c.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := app.NewLogger(cfg, c.debug)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = log
	return nil
}
