package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"survey-recon-go/internal/logger"
)

var version = "dev"

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(log).ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("surveyrecon failed")
		cancel()
		os.Exit(1)
	}
}

func newRootCommand(log *logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "surveyrecon",
		Short:         "Reconcile survey exports into one canonical table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTransformCommand(log))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
