package main

import (
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"survey-recon-go/internal/config"
	"survey-recon-go/internal/export"
	"survey-recon-go/internal/logger"
	"survey-recon-go/internal/pipeline"
)

type transformFlags struct {
	in        string
	out       string
	config    string
	workers   int
	noParquet bool
}

func newTransformCommand(log *logger.Logger) *cobra.Command {
	flags := &transformFlags{}
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform survey exports into clean outputs and metrics",
		Example: `  surveyrecon transform --in exports/ --out clean/
  surveyrecon transform --in wave1.xlsx --out clean/ --config synonyms.yaml --workers 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, flags, log)
		},
	}
	cmd.Flags().StringVar(&flags.in, "in", "", "input file or directory")
	cmd.Flags().StringVar(&flags.out, "out", "", "output directory")
	cmd.Flags().StringVar(&flags.config, "config", envOr("SURVEYRECON_CONFIG", "config/synonyms.yaml"), "synonym config (YAML)")
	cmd.Flags().IntVar(&flags.workers, "workers", 1, "files transformed in parallel")
	cmd.Flags().BoolVar(&flags.noParquet, "no-parquet", false, "skip clean.parquet")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runTransform(cmd *cobra.Command, flags *transformFlags, log *logger.Logger) error {
	if flags.workers < 1 || flags.workers > 4*runtime.NumCPU() {
		return fmt.Errorf("--workers must be between 1 and %d", 4*runtime.NumCPU())
	}

	runID := uuid.NewString()
	rlog := log.WithRun(runID)

	cfg, err := config.Load(flags.config)
	if err != nil {
		return err
	}
	clog := rlog.WithComponent("config").WithField("path", flags.config)
	if len(cfg.Synonyms()) == 0 {
		clog.Info("config missing or empty, only derived fields will be produced")
	}
	for _, key := range cfg.UnknownFields() {
		clog.WithField("key", key).Warn("unknown synonym key ignored")
	}

	report, err := pipeline.Run(cmd.Context(), pipeline.Options{
		In:      flags.in,
		Out:     flags.out,
		Config:  cfg,
		Workers: flags.workers,
		Parquet: !flags.noParquet,
		RunID:   runID,
	}, rlog)
	if err != nil {
		return err
	}
	return export.EncodeMetrics(cmd.OutOrStdout(), report.Summary)
}
