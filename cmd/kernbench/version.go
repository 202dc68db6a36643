package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"kernbench/internal/kernel"
	"kernbench/internal/workload"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the kernel build and the workloads it can time",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "kernbench kernels %s (%s, %s/%s)\n",
			kernel.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "families: %s\n", strings.Join(workload.Names(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
