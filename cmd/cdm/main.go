package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Error("cdm failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "cdm",
		Short:         "Adjudicate customs declaration risks",
		Long:          "cdm verifies the flagged risks of a customs declaration against tariff and valuation references and records a final decision for each risk.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CDM_CONFIG"), "path to the YAML configuration file")

	root.AddCommand(
		newRunCmd(&configPath),
		newHistoryCmd(&configPath),
		newPruneCmd(&configPath),
	)
	return root
}
