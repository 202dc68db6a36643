package benchmark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Descriptor is one unit of timed work handed to a TrialRunner. A descriptor
// may time several variants in one invocation; each variant is reported as a
// separately named value.
type Descriptor struct {
	Family   string
	Size     int
	Param    float64
	Variants []Variant
}

// Keys returns the configuration keys covered by d.
func (d Descriptor) Keys() []Key {
	keys := make([]Key, len(d.Variants))
	for i, v := range d.Variants {
		keys[i] = Key{Family: d.Family, Size: d.Size, Variant: v}
	}
	return keys
}

func (d Descriptor) String() string {
	vs := make([]string, len(d.Variants))
	for i, v := range d.Variants {
		vs[i] = string(v)
	}
	return fmt.Sprintf("%s/%d[%s]", d.Family, d.Size, strings.Join(vs, ","))
}

// Outcome is the result of a single trial: either named values, one per
// variant, or a failure.
type Outcome struct {
	Values  map[string]float64
	Failure error
}

// Failed reports whether the trial produced no usable values.
func (o Outcome) Failed() bool { return o.Failure != nil }

// TrialRunner executes a single trial. Implementations never return child
// or workload failures as panics; they are carried in the Outcome.
type TrialRunner interface {
	RunTrial(ctx context.Context, d Descriptor) Outcome
}

// threadVars are the parallelism knobs pinned in every child environment.
var threadVars = []string{
	"OMP_NUM_THREADS",
	"OPENBLAS_NUM_THREADS",
	"MKL_NUM_THREADS",
	"GOMAXPROCS",
}

// ThreadEnv is the immutable thread-count configuration applied to a child
// process environment. The parent's own environment is never modified.
type ThreadEnv struct {
	threads int
}

// SingleThreaded pins every numeric thread pool to one thread.
func SingleThreaded() ThreadEnv { return ThreadEnv{threads: 1} }

// NewThreadEnv pins every numeric thread pool to n threads.
func NewThreadEnv(n int) (ThreadEnv, error) {
	if n < 1 {
		return ThreadEnv{}, fmt.Errorf("thread count must be at least 1, got %d", n)
	}
	return ThreadEnv{threads: n}, nil
}

// Threads returns the pinned thread count.
func (e ThreadEnv) Threads() int {
	if e.threads < 1 {
		return 1
	}
	return e.threads
}

// Apply returns a copy of base with every thread variable replaced by the
// pinned value.
func (e ThreadEnv) Apply(base []string) []string {
	out := make([]string, 0, len(base)+len(threadVars))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if isThreadVar(name) {
			continue
		}
		out = append(out, kv)
	}
	n := strconv.Itoa(e.Threads())
	for _, name := range threadVars {
		out = append(out, name+"="+n)
	}
	return out
}

func isThreadVar(name string) bool {
	for _, v := range threadVars {
		if v == name {
			return true
		}
	}
	return false
}

// pipeGrace is how long a killed worker's output pipes may stay open
// before the wait gives up on them.
const pipeGrace = time.Second

// ExecFunc builds the child command. It is swapped out in tests.
type ExecFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Isolator runs each trial in a fresh worker process built from Locator.
type Isolator struct {
	// Locator is the path of the worker executable for the build under test.
	Locator string
	Env     ThreadEnv
	// Timeout bounds a single trial; zero means no limit.
	Timeout time.Duration
	// BaseEnv is the environment the thread settings are layered on.
	// Defaults to os.Environ().
	BaseEnv []string
	Exec    ExecFunc
}

// NewIsolator creates an isolator for the given build locator. An empty
// locator selects the running executable.
func NewIsolator(locator string, env ThreadEnv) (*Isolator, error) {
	if locator == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve own executable: %w", err)
		}
		locator = self
	} else {
		resolved, err := exec.LookPath(locator)
		if err != nil {
			return nil, fmt.Errorf("build locator %s is not executable: %w", locator, err)
		}
		locator = resolved
	}
	return &Isolator{Locator: locator, Env: env}, nil
}

// WorkerArgs returns the worker command line for d.
func WorkerArgs(d Descriptor) []string {
	args := []string{
		"worker",
		"--family", d.Family,
		"--size", strconv.Itoa(d.Size),
		"--param", strconv.FormatFloat(d.Param, 'g', -1, 64),
	}
	for _, v := range d.Variants {
		args = append(args, "--variant", string(v))
	}
	return args
}

func (i *Isolator) command(ctx context.Context, args ...string) *exec.Cmd {
	execFn := i.Exec
	if execFn == nil {
		execFn = exec.CommandContext
	}
	cmd := execFn(ctx, i.Locator, args...)
	base := i.BaseEnv
	if base == nil {
		base = os.Environ()
	}
	cmd.Env = i.Env.Apply(base)
	if cmd.Cancel != nil {
		killGroupOnCancel(cmd)
	}
	cmd.WaitDelay = pipeGrace
	return cmd
}

// bound applies the trial timeout to ctx.
func (i *Isolator) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.Timeout > 0 {
		return context.WithTimeout(ctx, i.Timeout)
	}
	return context.WithCancel(ctx)
}

// RunTrial spawns one worker, waits for it and parses its result line.
func (i *Isolator) RunTrial(ctx context.Context, d Descriptor) Outcome {
	ctx, cancel := i.bound(ctx)
	defer cancel()

	cmd := i.command(ctx, WorkerArgs(d)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		failure := &ProcessFailure{
			Locator:  i.Locator,
			ExitCode: -1,
			Reason:   err.Error(),
			Stderr:   stderr.String(),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			failure.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			failure.Reason = "killed: " + ctxErr.Error()
		}
		return Outcome{Failure: failure}
	}

	values, err := parseOutput(stdout.String())
	if err == nil {
		err = checkNames(values, d)
	}
	if err != nil {
		return Outcome{Failure: &ProcessFailure{
			Locator: i.Locator,
			Reason:  err.Error(),
			Stderr:  stderr.String(),
			Err:     err,
		}}
	}
	return Outcome{Values: values}
}

// Version asks the worker build for its version banner. The query is bound
// by the trial timeout.
func (i *Isolator) Version(ctx context.Context) (string, error) {
	ctx, cancel := i.bound(ctx)
	defer cancel()

	cmd := i.command(ctx, "worker", "--version")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to query version of %s: %w", i.Locator, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// checkNames verifies that a trial reported exactly the requested variants.
func checkNames(values map[string]float64, d Descriptor) error {
	line := FormatLine(values)
	if len(values) != len(d.Variants) {
		return &ProtocolError{Line: line, Msg: fmt.Sprintf("got %d fields, want %d", len(values), len(d.Variants))}
	}
	for _, v := range d.Variants {
		if _, ok := values[string(v)]; !ok {
			return &ProtocolError{Line: line, Msg: "missing field " + string(v)}
		}
	}
	return checkValues(values)
}
