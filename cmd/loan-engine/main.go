// Command loan-engine serves the mortgage and credit application API and runs
// the payment calculators from the shell.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bankim/loan-engine/internal/config"
	"github.com/bankim/loan-engine/pkg/constants"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile  string
	logLevel string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "loan-engine",
		Short: "Mortgage and credit calculators with a validated application wizard",
		Long: `loan-engine computes mortgage and credit payments, terms and schedules,
and serves the multi-step application wizard over HTTP.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(serveCmd())
	root.AddCommand(paymentCmd())
	root.AddCommand(termCmd())
	root.AddCommand(remainingCmd())
	root.AddCommand(annuityCmd())
	root.AddCommand(scheduleCmd())
	root.AddCommand(versionCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfiguration() (*config.Configuration, error) {
	conf, err := config.LoadConfiguration(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration at %s: %w", cfgFile, err)
	}
	return conf, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
