package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kernbench/internal/benchmark"
)

func saveTable(t *testing.T, name string, rows map[benchmark.Key]benchmark.Summary) string {
	t.Helper()
	table := benchmark.NewTable(benchmark.ModeStdev)
	for k, s := range rows {
		require.NoError(t, table.Put(k, s))
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, benchmark.Save(path, table))
	return path
}

func comparePair(t *testing.T) (string, string) {
	dia8 := benchmark.Key{Family: "sesolve", Size: 8, Variant: benchmark.VariantDIA}
	csr8 := benchmark.Key{Family: "sesolve", Size: 8, Variant: benchmark.VariantCSR}
	vec32 := benchmark.Key{Family: "vec", Size: 32, Variant: benchmark.VariantCSR}
	mat32 := benchmark.Key{Family: "mat", Size: 32, Variant: benchmark.VariantDIA}

	baseline := saveTable(t, "baseline.csv", map[benchmark.Key]benchmark.Summary{
		dia8:  {Mean: 1.0, Spread: 0.01, N: 5},
		csr8:  {Mean: 2.0, Spread: 0.1, N: 5},
		vec32: {Mean: 4.0, Spread: 0, N: 5},
	})
	candidate := saveTable(t, "candidate.csv", map[benchmark.Key]benchmark.Summary{
		dia8:  {Mean: 1.1, Spread: 0.02, N: 5},
		csr8:  {Mean: 1.5, Spread: 0.05, N: 5},
		mat32: {Mean: 9.0, Spread: 0, N: 5},
	})
	return baseline, candidate
}

func TestCompareCmd_Text(t *testing.T) {
	baseline, candidate := comparePair(t)

	out, err := executeCommand(rootCmd, "compare", baseline, candidate)
	require.NoError(t, err)

	assert.Contains(t, out, "=== SESOLVE [s] ===")
	assert.Contains(t, out, "=== VEC [µs/op] ===")
	assert.Contains(t, out, "+10.0%  SLOWER")
	assert.Contains(t, out, "-25.0%  FASTER")
	assert.Contains(t, out, "missing in candidate")
	assert.Contains(t, out, "New in candidate (no baseline):\n  mat/32/dia")
	assert.Less(t, strings.Index(out, "SESOLVE"), strings.Index(out, "VEC"), "families in key order")
}

func TestCompareCmd_Threshold(t *testing.T) {
	baseline, candidate := comparePair(t)

	out, err := executeCommand(rootCmd, "compare", baseline, candidate, "--threshold", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "+10.0%")
	assert.NotContains(t, out, "SLOWER")
	assert.NotContains(t, out, "FASTER")

	_, err = executeCommand(rootCmd, "compare", baseline, candidate, "--threshold", "-1")
	assert.ErrorContains(t, err, "--threshold must not be negative")
}

func TestCompareCmd_Markdown(t *testing.T) {
	baseline, candidate := comparePair(t)

	out, err := executeCommand(rootCmd, "compare", baseline, candidate, "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "### SESOLVE [s]")
	assert.Contains(t, out, "| 8 | 16 | dia |")
	assert.Contains(t, out, "| +10.0% | SLOWER |")
	assert.Contains(t, out, "- `mat/32/dia`")

	pretty, err := executeCommand(rootCmd, "compare", baseline, candidate, "--format", "markdown", "--pretty")
	require.NoError(t, err)
	assert.Contains(t, pretty, "SESOLVE")
	assert.Contains(t, pretty, "+10.0%")

	_, err = executeCommand(rootCmd, "compare", baseline, candidate, "--format", "html")
	assert.ErrorContains(t, err, "unknown format")
}

func TestCompareCmd_FailOnRegression(t *testing.T) {
	baseline, candidate := comparePair(t)

	out, err := executeCommand(rootCmd, "compare", baseline, candidate, "--fail-on-regression")
	require.Error(t, err)
	assert.Contains(t, out, "SLOWER", "report is still printed")
	assert.Contains(t, err.Error(), "2 regression(s) above 10.0%")
	assert.Contains(t, err.Error(), "sesolve/8/dia: +10.0%")
	assert.Contains(t, err.Error(), "vec/32/csr: +0.0% (missing in candidate)")

	_, err = executeCommand(rootCmd, "compare", baseline, baseline, "--fail-on-regression")
	assert.NoError(t, err)
}

func TestCompareCmd_BadInput(t *testing.T) {
	baseline, _ := comparePair(t)

	malformed := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(malformed, []byte("family,size,variant,mean,std,n\nvec,32,csr,abc,0,5\n"), 0o644))

	_, err := executeCommand(rootCmd, "compare", baseline, malformed)
	require.Error(t, err)
	var fe *benchmark.FormatError
	assert.ErrorAs(t, err, &fe)

	_, err = executeCommand(rootCmd, "compare", baseline, filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)

	_, err = executeCommand(rootCmd, "compare", baseline)
	assert.ErrorContains(t, err, "accepts 2 arg(s)")
}
