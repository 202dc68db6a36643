package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kernbench/internal/config"
	"kernbench/internal/workload"
)

var tuningCmd = &cobra.Command{
	Use:   "tuning",
	Short: "Print the active tuning parameter of every configuration",
	Long: `Prints, per family and size, the solver end time or multiply iteration count
after config overrides and tuning.scale are applied.`,
	Args: cobra.NoArgs,
	RunE: runTuning,
}

func init() {
	rootCmd.AddCommand(tuningCmd)
}

func runTuning(cmd *cobra.Command, args []string) error {
	s, err := config.Current()
	if err != nil {
		return err
	}
	t, err := workload.NewTuning(s.TuningScale, s.TuningTables)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(cmd.OutOrStdout(), "Scale: %g\n\n", t.Scale())
	fmt.Fprintln(w, "FAMILY\tSIZE\tDIM\tPARAM\tUNIT\t")
	for _, name := range workload.Names() {
		f, err := workload.Lookup(name)
		if err != nil {
			return err
		}
		for _, size := range t.Sizes(name) {
			p, err := t.Param(name, size)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t\n", name, size, f.Dim(size),
				strconv.FormatFloat(p, 'g', -1, 64), f.Unit())
		}
	}
	return w.Flush()
}
