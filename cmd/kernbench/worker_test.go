package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kernbench/internal/benchmark"
	"kernbench/internal/kernel"
)

func TestWorkerCmd(t *testing.T) {
	t.Run("Version banner", func(t *testing.T) {
		out, err := executeCommand(rootCmd, "worker", "--version")
		require.NoError(t, err)
		assert.Equal(t, "kernels "+kernel.Version+"\n", out)
	})

	t.Run("Multiply prints one line per invocation", func(t *testing.T) {
		out, err := executeCommand(rootCmd, "worker", "--family", "vec", "--size", "32", "--param", "3",
			"--variant", "dia", "--variant", "csr")
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(out, "\n"), "exactly one line on stdout")

		values, err := benchmark.ParseLine(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Len(t, values, 2)
		assert.Contains(t, values, "csr")
		assert.Contains(t, values, "dia")
		for _, v := range values {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	})

	t.Run("Solver", func(t *testing.T) {
		out, err := executeCommand(rootCmd, "worker", "--family", "sesolve", "--size", "4", "--param", "0.5",
			"--variant", "csr")
		require.NoError(t, err)
		values, err := benchmark.ParseLine(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Len(t, values, 1)
		assert.Contains(t, values, "csr")
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want string
		}{
			{"unknown family", []string{"--family", "fft", "--size", "32", "--param", "1", "--variant", "csr"}, "unknown family"},
			{"unknown variant", []string{"--family", "vec", "--size", "32", "--param", "1", "--variant", "coo"}, "coo"},
			{"no variant", []string{"--family", "vec", "--size", "32", "--param", "1"}, "no variants"},
			{"bad param", []string{"--family", "vec", "--size", "32", "--param", "0", "--variant", "csr"}, "must be positive"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				out, err := executeCommand(rootCmd, append([]string{"worker"}, tt.args...)...)
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.want)
				assert.NotContains(t, out, ":", "no result line on failure")
			})
		}
	})
}
