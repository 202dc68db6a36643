package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kernbench/internal/benchmark"
	"kernbench/internal/config"
)

var (
	historyLimit int
	historyCSV   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect runs stored with run --save-history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a stored run, optionally exporting it as CSV",
	Long: `Prints the result table of a stored run. The id may be any unique prefix.
With --csv the table is also written in the same format as run --csv, so it
can be fed to compare.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd)
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum number of runs to list")
	historyShowCmd.Flags().StringVarP(&historyCSV, "csv", "o", "", "Export the result table to this CSV file")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	s, err := config.Current()
	if err != nil {
		return err
	}
	store, err := storeFactory(s)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs stored.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tLABEL\tVERSION\tMODE\tTRIALS\tSKIPPED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			shortID(r.ID), r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Label, r.Version, r.Mode, r.Trials, r.Skipped)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	s, err := config.Current()
	if err != nil {
		return err
	}
	store, err := storeFactory(s)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	run, table, err := store.LoadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if run.Label != "" {
		fmt.Fprintf(out, "Label:    %s\n", run.Label)
	}
	fmt.Fprintf(out, "Build:    %s (%s)\n", run.Version, run.Locator)
	fmt.Fprintf(out, "Trials:   %d per configuration, %d skipped\n\n", run.Trials, run.Skipped)

	if err := benchmark.WriteSummary(out, table, reportOptions(s)); err != nil {
		return err
	}
	if historyCSV != "" {
		if err := benchmark.Save(historyCSV, table); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nResults saved to %s\n", historyCSV)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
