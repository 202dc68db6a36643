package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kernbench/internal/benchmark"
	"kernbench/internal/config"
	"kernbench/internal/telemetry"
	"kernbench/internal/ui"
	"kernbench/internal/workload"
)

// trialFlags are the selection and sampling flags shared by run and ab.
// They override the configuration only when given.
type trialFlags struct {
	runs     int
	warmup   int
	mode     string
	timeout  time.Duration
	threads  int
	families []string
	sizes    []int
	variants []string
}

func (f *trialFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.runs, "runs", "n", 5, "Trials per configuration")
	cmd.Flags().IntVar(&f.warmup, "warmup", 0, "Discarded trials before the timed ones")
	cmd.Flags().StringVar(&f.mode, "mode", "stdev", "Spread statistic: stdev or minmax")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Minute, "Kill a worker after this long (0 disables)")
	cmd.Flags().IntVar(&f.threads, "threads", 1, "Thread count pinned in every worker")
	cmd.Flags().StringSliceVarP(&f.families, "family", "f", nil, "Families to run (default all)")
	cmd.Flags().IntSliceVarP(&f.sizes, "size", "s", nil, "Sizes to run (default every tuned size)")
	cmd.Flags().StringSliceVar(&f.variants, "variant", nil, "Storage formats to run (default csr,dia)")
}

// settings returns the configuration with any given flag applied on top.
func (f *trialFlags) settings(cmd *cobra.Command) (*config.Settings, error) {
	s, err := config.Current()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("runs") {
		if f.runs < 1 {
			return nil, fmt.Errorf("--runs must be positive, got %d", f.runs)
		}
		s.Runs = f.runs
	}
	if flags.Changed("warmup") {
		if f.warmup < 0 {
			return nil, fmt.Errorf("--warmup must not be negative, got %d", f.warmup)
		}
		s.Warmup = f.warmup
	}
	if flags.Changed("mode") {
		mode, err := benchmark.ParseMode(f.mode)
		if err != nil {
			return nil, err
		}
		s.Mode = mode
	}
	if flags.Changed("timeout") {
		if f.timeout < 0 {
			return nil, fmt.Errorf("--timeout must not be negative, got %v", f.timeout)
		}
		s.TrialTimeout = f.timeout
	}
	if flags.Changed("threads") {
		s.Threads = f.threads
	}
	return s, nil
}

// plan resolves the selected configurations against the tuning tables.
func (f *trialFlags) plan(s *config.Settings) (benchmark.Plan, error) {
	tuning, err := workload.NewTuning(s.TuningScale, s.TuningTables)
	if err != nil {
		return nil, err
	}
	var variants []benchmark.Variant
	for _, name := range f.variants {
		v, err := benchmark.ParseVariant(name)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	plan, err := workload.BuildPlan(tuning, workload.PlanOptions{
		Families: f.families,
		Sizes:    f.sizes,
		Variants: variants,
	})
	if err != nil {
		return nil, err
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("nothing to run: no tuned configuration matches the selection")
	}
	return plan, nil
}

func newIsolator(locator string, s *config.Settings) (*benchmark.Isolator, error) {
	env, err := benchmark.NewThreadEnv(s.Threads)
	if err != nil {
		return nil, err
	}
	iso, err := benchmark.NewIsolator(locator, env)
	if err != nil {
		return nil, err
	}
	iso.Timeout = s.TrialTimeout
	iso.Exec = isolatorExec
	return iso, nil
}

// buildVersion asks a build for its banner. A build that cannot answer is
// still benchmarked; its trials will fail and be reported as skipped.
func buildVersion(ctx context.Context, iso *benchmark.Isolator) string {
	v, err := iso.Version(ctx)
	if err != nil {
		telemetry.LogError("version query failed", err, "locator", iso.Locator)
		return "unknown"
	}
	return v
}

func newAggregator(s *config.Settings, rec benchmark.Recorder) *benchmark.Aggregator {
	return &benchmark.Aggregator{
		Runs:     s.Runs,
		Warmup:   s.Warmup,
		Mode:     s.Mode,
		Recorder: rec,
	}
}

// startMetrics creates the run's metrics and serves them when configured.
func startMetrics(ctx context.Context, s *config.Settings) (*telemetry.Metrics, error) {
	m := telemetry.NewMetrics()
	if s.MetricsAddr != "" {
		if _, err := m.StartMetricsServer(ctx, s.MetricsAddr); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func flushMetrics(m *telemetry.Metrics, s *config.Settings) error {
	if s.MetricsTextfile == "" {
		return nil
	}
	return m.WriteTextfile(s.MetricsTextfile)
}

func reportOptions(s *config.Settings) benchmark.ReportOptions {
	return benchmark.ReportOptions{
		Threshold: s.Threshold,
		Dim:       func(k benchmark.Key) int { return workload.DimOf(k.Family, k.Size) },
		Unit:      workload.UnitOf,
		Heading:   ui.Heading,
	}
}
