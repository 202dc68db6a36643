package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summarize reduces durations to a Summary. The sample standard deviation
// uses the unbiased (n-1) estimator and is 0 for a single sample.
func Summarize(durations []float64, mode Mode) (Summary, error) {
	if len(durations) == 0 {
		return Summary{}, ErrNoSamples
	}
	for _, d := range durations {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return Summary{}, fmt.Errorf("invalid duration %v", d)
		}
	}

	s := Summary{
		Mean: stat.Mean(durations, nil),
		Min:  floats.Min(durations),
		Max:  floats.Max(durations),
		N:    len(durations),
	}
	switch mode {
	case ModeMinMax:
		s.Spread = s.Max - s.Min
	default:
		if s.N > 1 {
			s.Spread = stat.StdDev(durations, nil)
		}
	}
	return s, nil
}

// Recorder observes trial outcomes. telemetry.Metrics implements it.
type Recorder interface {
	RecordTrial(family string, variant Variant, ok bool, value float64)
	RecordSkip(k Key)
}

type nopRecorder struct{}

func (nopRecorder) RecordTrial(string, Variant, bool, float64) {}
func (nopRecorder) RecordSkip(Key)                             {}

// Plan is the ordered list of trials to execute for one benchmark run.
type Plan []Descriptor

// Skip records a configuration that produced no usable samples.
type Skip struct {
	Key      Key
	Attempts int
	Reason   string
}

// RunResult is the outcome of aggregating a plan against one build.
type RunResult struct {
	Table    *Table
	Skipped  []Skip
	Failures int
}

// Aggregator executes a plan trial by trial and reduces the samples.
// Trials never overlap: each RunTrial call returns before the next starts.
type Aggregator struct {
	Runs     int
	Warmup   int
	Mode     Mode
	Recorder Recorder
	Logger   *slog.Logger
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *Aggregator) recorder() Recorder {
	if a.Recorder != nil {
		return a.Recorder
	}
	return nopRecorder{}
}

// Run executes every descriptor of plan Runs times against runner.
func (a *Aggregator) Run(ctx context.Context, plan Plan, runner TrialRunner) (*RunResult, error) {
	results, err := a.RunInterleaved(ctx, plan, runner)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// RunInterleaved alternates runners trial by trial, so that slow drift of the
// host affects every build equally. It returns one result per runner.
func (a *Aggregator) RunInterleaved(ctx context.Context, plan Plan, runners ...TrialRunner) ([]*RunResult, error) {
	if len(runners) == 0 {
		return nil, fmt.Errorf("no trial runners given")
	}
	runs := a.Runs
	if runs < 1 {
		runs = 1
	}

	type accum struct {
		samples    map[Key][]float64
		lastReason map[Key]string
		failures   int
	}
	accs := make([]*accum, len(runners))
	for i := range accs {
		accs[i] = &accum{samples: make(map[Key][]float64), lastReason: make(map[Key]string)}
	}

	log := a.logger()
	rec := a.recorder()

	for _, d := range plan {
		for w := 0; w < a.Warmup; w++ {
			for _, r := range runners {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				r.RunTrial(ctx, d)
			}
		}
		for n := 0; n < runs; n++ {
			for ri, r := range runners {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				acc := accs[ri]
				out := r.RunTrial(ctx, d)
				if !out.Failed() {
					if err := checkValues(out.Values); err != nil {
						out = Outcome{Failure: err}
					}
				}
				if out.Failed() {
					acc.failures++
					log.Warn("trial failed", "config", d.String(), "trial", n+1, "runner", ri, "error", out.Failure)
					for _, k := range d.Keys() {
						acc.lastReason[k] = out.Failure.Error()
						rec.RecordTrial(k.Family, k.Variant, false, 0)
					}
					continue
				}
				for _, k := range d.Keys() {
					v := out.Values[string(k.Variant)]
					acc.samples[k] = append(acc.samples[k], v)
					rec.RecordTrial(k.Family, k.Variant, true, v)
				}
				log.Debug("trial complete", "config", d.String(), "trial", n+1, "runner", ri, "values", FormatLine(out.Values))
			}
		}
	}

	results := make([]*RunResult, len(runners))
	for ri, acc := range accs {
		res := &RunResult{Table: NewTable(a.Mode), Failures: acc.failures}
		for _, d := range plan {
			for _, k := range d.Keys() {
				if _, done := res.Table.Get(k); done {
					continue
				}
				summary, err := Summarize(acc.samples[k], a.Mode)
				if err != nil {
					if !containsSkip(res.Skipped, k) {
						reason := acc.lastReason[k]
						if reason == "" {
							reason = err.Error()
						}
						res.Skipped = append(res.Skipped, Skip{Key: k, Attempts: runs * countKey(plan, k), Reason: reason})
						rec.RecordSkip(k)
						log.Warn("configuration skipped", "key", k.String(), "reason", reason)
					}
					continue
				}
				if err := res.Table.Put(k, summary); err != nil {
					return nil, err
				}
			}
		}
		sortSkips(res.Skipped)
		results[ri] = res
	}
	return results, nil
}

func countKey(plan Plan, k Key) int {
	n := 0
	for _, d := range plan {
		for _, dk := range d.Keys() {
			if dk == k {
				n++
			}
		}
	}
	return n
}

func containsSkip(skips []Skip, k Key) bool {
	for _, s := range skips {
		if s.Key == k {
			return true
		}
	}
	return false
}

func sortSkips(skips []Skip) {
	sort.Slice(skips, func(i, j int) bool { return skips[i].Key.Less(skips[j].Key) })
}
