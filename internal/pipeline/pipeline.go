package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"survey-recon-go/internal/aggregator"
	"survey-recon-go/internal/config"
	"survey-recon-go/internal/dataset"
	"survey-recon-go/internal/export"
	"survey-recon-go/internal/logger"
	"survey-recon-go/internal/processor"
	"survey-recon-go/internal/types"
)

// Options configures one transform run.
type Options struct {
	In      string
	Out     string
	Config  config.Config
	Workers int
	Parquet bool
	RunID   string
	// Now defaults to time.Now.
	Now func() time.Time
}

// FileResult is one source after loading and record building.
type FileResult struct {
	Loaded dataset.Loaded
	Result processor.Result
}

// Report is what a run produced.
type Report struct {
	Summary aggregator.Summary
	Files   []FileResult
	Schema  types.Schema
	Records []types.Record
}

// Run transforms every source under opts.In and writes the outputs to
// opts.Out. Files are processed concurrently but merged in name order, so
// the result does not depend on the worker count. Nothing is written unless
// every file succeeds.
func Run(ctx context.Context, opts Options, log *logger.Logger) (Report, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	workers := max(opts.Workers, 1)
	plog := log.WithComponent("pipeline")

	sources, err := dataset.ListInputs(opts.In)
	if err != nil {
		return Report{}, err
	}
	plog.WithField("files", len(sources)).WithField("workers", workers).Info("transform started")

	results := make([]FileResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fr, err := transformFile(src, opts.Config, log)
			if err != nil {
				return err
			}
			results[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := merge(results, opts.RunID, opts.Now())
	if err := writeOutputs(ctx, opts, report, log); err != nil {
		return Report{}, err
	}
	plog.WithFields(logrus.Fields{
		"rows_total":     report.Summary.RowsTotal,
		"rows_completed": report.Summary.RowsCompleted,
	}).Info("transform finished")
	return report, nil
}

func transformFile(src dataset.Source, cfg config.Config, log *logger.Logger) (FileResult, error) {
	loaded, err := dataset.Load(src, cfg, log)
	if err != nil {
		return FileResult{}, err
	}
	res := processor.Build(loaded.Table, cfg)
	res.AttachSource(src.Name)

	entry := log.WithComponent("processor").WithField("file", loaded.ID())
	for header, fields := range res.Resolution.Shared() {
		entry.WithField("header", header).WithField("fields", fields).Warn("one column resolved to several fields")
	}
	entry.WithFields(logrus.Fields{
		"rows":       len(res.Records),
		"resolved":   len(res.Resolution.Fields()),
		"duplicates": res.Duplicates,
		"clipped":    res.Clipped,
	}).Info("file transformed")
	return FileResult{Loaded: loaded, Result: res}, nil
}

func merge(results []FileResult, runID string, now time.Time) Report {
	schemas := make([]types.Schema, 0, len(results))
	inputs := make([]aggregator.FileInput, 0, len(results))
	var records []types.Record
	for _, fr := range results {
		schemas = append(schemas, fr.Result.Schema)
		records = append(records, fr.Result.Records...)
		inputs = append(inputs, aggregator.FileInput{
			ID:         fr.Loaded.ID(),
			SourceFile: fr.Loaded.Source.Name,
			Records:    fr.Result.Records,
		})
	}
	return Report{
		Summary: aggregator.Combine(inputs, runID, now),
		Files:   results,
		Schema:  types.UnionSchema(schemas...),
		Records: records,
	}
}

func writeOutputs(ctx context.Context, opts Options, report Report, log *logger.Logger) error {
	wlog := log.WithComponent("export")
	if err := os.MkdirAll(opts.Out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out := func(name string) string { return filepath.Join(opts.Out, name) }

	if err := export.WriteClean(out(export.CleanCSVFile), report.Schema, report.Records); err != nil {
		return err
	}
	if opts.Parquet {
		if err := export.WriteParquet(out(export.ParquetFile), report.Schema, report.Records); err != nil {
			wlog.WithField("error", err.Error()).Warn("parquet output skipped")
			os.Remove(out(export.ParquetFile))
		}
	}

	var daily []types.DailyBucket
	for _, f := range report.Summary.Files {
		daily = append(daily, f.Daily...)
	}
	if len(daily) > 0 {
		if err := export.WriteDaily(out(export.DailyFile), daily); err != nil {
			return err
		}
	}

	if err := export.WriteMetrics(out(export.MetricsFile), report.Summary); err != nil {
		return err
	}

	now := opts.Now()
	entries := make([]export.AuditEntry, 0, len(report.Files))
	for _, f := range report.Files {
		entries = append(entries, export.AuditEntry{
			Timestamp: now,
			File:      f.Loaded.Source.Name,
			Sheet:     f.Loaded.Sheet,
			Rows:      len(f.Result.Records),
			RunID:     opts.RunID,
		})
	}
	if err := export.NewAuditLog(out(export.AuditFile)).Append(ctx, entries); err != nil {
		return err
	}
	wlog.WithField("out", opts.Out).Info("outputs written")
	return nil
}
