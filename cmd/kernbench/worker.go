package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kernbench/internal/benchmark"
	"kernbench/internal/kernel"
)

var (
	workerFamily   string
	workerSize     int
	workerParam    float64
	workerVariants []string
	workerVersion  bool
)

// workerCmd is the child side of process isolation. It times one descriptor
// and writes exactly one result line to stdout; everything else goes to
// stderr.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Time one configuration and print a single result line",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().StringVar(&workerFamily, "family", "", "Operation family")
	workerCmd.Flags().IntVar(&workerSize, "size", 0, "Problem size")
	workerCmd.Flags().Float64Var(&workerParam, "param", 0, "Tuning parameter (end time or iteration count)")
	workerCmd.Flags().StringArrayVar(&workerVariants, "variant", nil, "Storage format to time (repeatable)")
	workerCmd.Flags().BoolVar(&workerVersion, "version", false, "Print the kernel version banner and exit")
}

func runWorker(cmd *cobra.Command, args []string) error {
	if workerVersion {
		fmt.Fprintf(cmd.OutOrStdout(), "kernels %s\n", kernel.Version)
		return nil
	}

	d := benchmark.Descriptor{Family: workerFamily, Size: workerSize, Param: workerParam}
	for _, name := range workerVariants {
		v, err := benchmark.ParseVariant(name)
		if err != nil {
			return err
		}
		d.Variants = append(d.Variants, v)
	}

	values, err := invokerFactory().Invoke(cmd.Context(), d)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), benchmark.FormatLine(values))
	return nil
}
