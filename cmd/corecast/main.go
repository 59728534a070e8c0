package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "./configs/dex_trades.yaml"

func main() {
	if err := newCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "corecast",
		Short:         "Stream Solana DEX, transfer and balance events from a CoreCast server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.stdout = cmd.OutOrStdout()
			opts.stderr = cmd.ErrOrStderr()
			return run(cmd.Context(), opts)
		},
	}
	cmd.Args = func(c *cobra.Command, args []string) error {
		if err := cobra.NoArgs(c, args); err != nil {
			fmt.Fprintf(c.ErrOrStderr(), "corecast: %v\n", err)
			return err
		}
		return nil
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintf(c.ErrOrStderr(), "%v\n\n%s", err, c.UsageString())
		return err
	})

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to the YAML configuration file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "INFO", "Log level: DEBUG, INFO, WARNING or ERROR")
	return cmd
}
