package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"kernbench/internal/benchmark"
	"kernbench/internal/db"
	"kernbench/internal/telemetry"
	"kernbench/internal/ui"
)

var (
	abTrials    trialFlags
	abReport    reportFlags
	abCSVPrefix string
)

var abCmd = &cobra.Command{
	Use:   "ab <baseline-build> <candidate-build>",
	Short: "Benchmark two builds with interleaved trials and compare them",
	Long: `Runs the same plan against two builds, alternating between them trial by
trial so that drift on the host affects both equally, then prints the
comparison of the candidate against the baseline.`,
	Args: cobra.ExactArgs(2),
	RunE: runAB,
}

func init() {
	rootCmd.AddCommand(abCmd)
	abTrials.register(abCmd)
	abReport.register(abCmd)
	abCmd.Flags().StringVar(&abCSVPrefix, "csv-prefix", "", "Save both tables as <prefix>baseline.csv and <prefix>candidate.csv")
}

func runAB(cmd *cobra.Command, args []string) error {
	s, err := abTrials.settings(cmd)
	if err != nil {
		return err
	}
	plan, err := abTrials.plan(s)
	if err != nil {
		return err
	}
	opts, err := abReport.options(cmd, s)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	builds := make([]*benchmark.Isolator, len(args))
	versions := make([]string, len(args))
	runners := make([]benchmark.TrialRunner, len(args))
	for i, locator := range args {
		iso, err := newIsolator(locator, s)
		if err != nil {
			return err
		}
		builds[i] = iso
		runners[i] = iso
		versions[i] = buildVersion(ctx, iso)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Banner(fmt.Sprintf("baseline:  %s (%s)", versions[0], builds[0].Locator)))
	fmt.Fprintln(out, ui.Banner(fmt.Sprintf("candidate: %s (%s)", versions[1], builds[1].Locator)))
	fmt.Fprintln(out, ui.Note(fmt.Sprintf("%d configuration(s), %d interleaved trial(s) each", len(plan), s.Runs)))
	fmt.Fprintln(out)

	metrics, err := startMetrics(ctx, s)
	if err != nil {
		return err
	}
	runID := db.NewRun("", builds[1].Locator, versions[1]).ID
	metrics.SetRunInfo(runID, builds[1].Locator, versions[1])

	log := telemetry.ForRun(runID)
	log.Info("interleaved run started", "configs", len(plan))
	results, err := newAggregator(s, metrics).RunInterleaved(ctx, plan, runners...)
	if err != nil {
		return fmt.Errorf("benchmark run aborted: %w", err)
	}
	log.Info("interleaved run finished", "baseline_skipped", len(results[0].Skipped),
		"candidate_skipped", len(results[1].Skipped))

	for i, name := range []string{"baseline", "candidate"} {
		if len(results[i].Skipped) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s: ", name)
		if err := benchmark.WriteSkipped(out, results[i].Skipped); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	if abCSVPrefix != "" {
		for i, name := range []string{"baseline", "candidate"} {
			path := abCSVPrefix + name + ".csv"
			if err := benchmark.Save(path, results[i].Table); err != nil {
				return err
			}
			fmt.Fprintf(out, "Results saved to %s\n", path)
		}
		fmt.Fprintln(out)
	}

	if err := flushMetrics(metrics, s); err != nil {
		return err
	}

	opts.BaselineLabel = versions[0]
	opts.CandidateLabel = versions[1]
	if opts.BaselineLabel == opts.CandidateLabel {
		opts.BaselineLabel, opts.CandidateLabel = "Baseline", "Candidate"
	}
	return abReport.write(out, benchmark.Compare(results[0].Table, results[1].Table), opts)
}
