package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTuningCmd(t *testing.T) {
	out, err := executeCommand(rootCmd, "tuning")
	require.NoError(t, err)
	assert.Contains(t, out, "Scale: 1")

	var sesolve4, vec32 string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] + "/" + fields[1] {
		case "sesolve/4":
			sesolve4 = line
		case "vec/32":
			vec32 = line
		}
	}
	assert.Equal(t, []string{"sesolve", "4", "8", "10683", "s"}, strings.Fields(sesolve4))
	assert.Equal(t, []string{"vec", "32", "32", "50000", "µs/op"}, strings.Fields(vec32))
}

func TestTuningCmd_Scaled(t *testing.T) {
	t.Setenv("KERNBENCH_TUNING_SCALE", "0.5")

	out, err := executeCommand(rootCmd, "tuning")
	require.NoError(t, err)
	assert.Contains(t, out, "Scale: 0.5")
	assert.Regexp(t, `(?m)^\s*mat\s+256\s+256\s+100\s+µs/op`, out)
}
