package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/netsynth/internal/analysis"
	"github.com/torosent/netsynth/internal/collect"
	"github.com/torosent/netsynth/internal/config"
	"github.com/torosent/netsynth/internal/dataset"
	"github.com/torosent/netsynth/internal/model"
	"github.com/torosent/netsynth/internal/output"
	"github.com/torosent/netsynth/internal/threshold"
	"github.com/torosent/netsynth/internal/tracing"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Parse thresholds before doing any work so a typo fails fast.
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()
	tracer := provider.Tracer()

	if cfg.Collect.MeasurementID > 0 {
		return runCollect(ctx, cfg, tracer)
	}
	return runGenerate(ctx, cfg, tracer, thresholds)
}

func runGenerate(ctx context.Context, cfg *config.Config, tracer trace.Tracer, thresholds []threshold.Threshold) error {
	gen := model.New(cfg.Model.Params(), model.WithWorkers(cfg.Workers))

	_, span := tracing.StartSpan(ctx, tracer, "generate",
		attribute.Int("netsynth.samples", cfg.Samples),
		attribute.Int64("netsynth.seed", cfg.Seed),
	)
	table, err := gen.Generate(cfg.Samples, cfg.Seed)
	tracing.EndSpan(span, err)
	if err != nil {
		return err
	}

	meta := dataset.NewMetadata(table)

	_, span = tracing.StartSpan(ctx, tracer, "write",
		attribute.String("netsynth.dataset_id", meta.ID),
		attribute.String("netsynth.csv_path", cfg.Output.CSVPath),
	)
	err = writeArtifacts(cfg, table, meta)
	tracing.EndSpan(span, err)
	if err != nil {
		return err
	}

	summary, err := analysis.Summarize(table)
	if err != nil {
		return err
	}

	report := output.Report{Dataset: meta, Summary: summary}
	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, report); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, report)
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(summary)
	if cfg.JSONOutput {
		// Keep stdout as pure JSON.
		output.PrintThresholdResults(os.Stderr, results)
	} else {
		output.PrintThresholdResults(os.Stdout, results)
	}
	if !threshold.AllPassed(results) {
		failed := 0
		for _, r := range results {
			if !r.Pass {
				failed++
			}
		}
		return fmt.Errorf("%d threshold(s) failed", failed)
	}
	return nil
}

func writeArtifacts(cfg *config.Config, table *model.Table, meta dataset.Metadata) error {
	if err := dataset.WriteCSV(cfg.Output.CSVPath, table); err != nil {
		return err
	}
	if cfg.Output.JSONPath != "" {
		if err := dataset.WriteJSON(cfg.Output.JSONPath, table); err != nil {
			return err
		}
	}
	if cfg.Output.MetadataPath != "" {
		if err := dataset.WriteMetadata(cfg.Output.MetadataPath, meta); err != nil {
			return err
		}
	}
	return nil
}

func runCollect(ctx context.Context, cfg *config.Config, tracer trace.Tracer) error {
	client := collect.NewClient(cfg.Collect)

	_, span := tracing.StartSpan(ctx, tracer, "collect",
		attribute.Int64("netsynth.measurement_id", cfg.Collect.MeasurementID),
	)
	results, err := client.FetchResults(ctx, cfg.Collect.MeasurementID)
	tracing.EndSpan(span, err, attribute.Int("netsynth.results", len(results)))
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("measurement %d returned no usable results", cfg.Collect.MeasurementID)
	}

	if err := collect.WriteCSV(cfg.Collect.OutPath, results); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Collected %d results from measurement %d into %s\n",
		len(results), cfg.Collect.MeasurementID, cfg.Collect.OutPath)
	return nil
}
