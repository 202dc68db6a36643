package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kernbench/internal/benchmark"
)

func TestABCmd(t *testing.T) {
	useHelperWorkers(t)
	self, err := os.Executable()
	require.NoError(t, err)

	t.Run("Same build", func(t *testing.T) {
		prefix := t.TempDir() + "/ab_"
		out, err := executeCommand(rootCmd, "ab", self, self, "--family", "vec", "--size", "32", "--runs", "2",
			"--csv-prefix", prefix)
		require.NoError(t, err)

		assert.Contains(t, out, "baseline:  kernels ")
		assert.Contains(t, out, "candidate: kernels ")
		assert.Contains(t, out, "1 configuration(s), 2 interleaved trial(s) each")
		assert.Contains(t, out, "=== VEC [µs/op] ===")
		assert.Contains(t, out, "Baseline")
		assert.NotContains(t, out, "missing in candidate")

		for _, name := range []string{"baseline", "candidate"} {
			table, err := benchmark.Load(prefix + name + ".csv")
			require.NoError(t, err, name)
			assert.Equal(t, 2, table.Len(), name)
		}
	})

	t.Run("Broken candidate", func(t *testing.T) {
		out, err := executeCommand(rootCmd, "ab", self, fakeBuild(t, "broken"), "--family", "vec", "--size", "32",
			"--runs", "1", "--fail-on-regression")
		require.Error(t, err)
		assert.Contains(t, out, "candidate: unknown")
		assert.Contains(t, out, "candidate: Skipped 2 configuration(s):")
		assert.Contains(t, out, "missing in candidate")
		assert.Contains(t, err.Error(), "vec/32/dia: +0.0% (missing in candidate)")
	})

	t.Run("Needs two builds", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "ab", self)
		assert.ErrorContains(t, err, "accepts 2 arg(s)")
	})
}
