package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"kernbench/internal/benchmark"
	"kernbench/internal/config"
	"kernbench/internal/db"
	"kernbench/internal/kernel"
	"kernbench/internal/telemetry"
	"kernbench/internal/ui"
	"kernbench/internal/workload"
)

var (
	runTrials      trialFlags
	runCSV         string
	runInProcess   bool
	runSaveHistory bool
	runLabel       string
)

var runCmd = &cobra.Command{
	Use:   "run [build]",
	Short: "Benchmark one build and record its results",
	Long: `Runs every selected configuration of a build the configured number of times,
each trial in a fresh worker process, and prints the mean and spread per
configuration. The build is the path of a kernbench executable; it defaults to
this executable.

Configurations whose trials all fail are listed as skipped. Skips do not
change the exit status.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runTrials.register(runCmd)
	runCmd.Flags().StringVarP(&runCSV, "csv", "o", "", "Save the result table to this CSV file")
	runCmd.Flags().BoolVar(&runInProcess, "in-process", false, "Run trials in this process without isolation")
	runCmd.Flags().BoolVar(&runSaveHistory, "save-history", false, "Store the run in the history database")
	runCmd.Flags().StringVar(&runLabel, "label", "", "Label stored with the run")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	s, err := runTrials.settings(cmd)
	if err != nil {
		return err
	}
	plan, err := runTrials.plan(s)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var locator string
	if len(args) > 0 {
		locator = args[0]
	}

	var runner benchmark.TrialRunner
	var version string
	if runInProcess {
		if locator != "" {
			return fmt.Errorf("--in-process cannot benchmark another build (%s)", locator)
		}
		runner = &workload.InProcess{Invoker: invokerFactory()}
		version = "kernels " + kernel.Version
		locator = "in-process"
	} else {
		iso, err := newIsolator(locator, s)
		if err != nil {
			return err
		}
		runner = iso
		version = buildVersion(ctx, iso)
		locator = iso.Locator
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Banner(version))
	fmt.Fprintln(out, ui.Note(fmt.Sprintf("%d configuration(s), %d trial(s) each, %s spread, %d thread(s)",
		len(plan), s.Runs, s.Mode, s.Threads)))
	fmt.Fprintln(out)

	metrics, err := startMetrics(ctx, s)
	if err != nil {
		return err
	}
	run := db.NewRun(runLabel, locator, version)
	metrics.SetRunInfo(run.ID, locator, version)

	log := telemetry.ForRun(run.ID)
	log.Info("benchmark run started", "locator", locator, "configs", len(plan))
	res, err := newAggregator(s, metrics).Run(ctx, plan, runner)
	if err != nil {
		return fmt.Errorf("benchmark run aborted: %w", err)
	}
	log.Info("benchmark run finished", "results", res.Table.Len(),
		"skipped", len(res.Skipped), "failed_trials", res.Failures)

	if err := benchmark.WriteSummary(out, res.Table, reportOptions(s)); err != nil {
		return err
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintln(out)
		if err := benchmark.WriteSkipped(out, res.Skipped); err != nil {
			return err
		}
	}

	if runCSV != "" {
		if err := benchmark.Save(runCSV, res.Table); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nResults saved to %s\n", runCSV)
	}

	if runSaveHistory {
		run.Trials = s.Runs
		run.Skipped = len(res.Skipped)
		if err := saveHistory(ctx, s, run, res.Table); err != nil {
			return err
		}
		fmt.Fprintf(out, "Stored run %s\n", run.ID)
	}

	return flushMetrics(metrics, s)
}

func saveHistory(ctx context.Context, s *config.Settings, run db.Run, table *benchmark.Table) error {
	store, err := storeFactory(s)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()
	if err := store.SaveRun(ctx, run, table); err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}
	return nil
}
