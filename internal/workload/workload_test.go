package workload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kernbench/internal/benchmark"
)

// tickingClock advances by step on every reading.
func tickingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestLookup(t *testing.T) {
	f, err := Lookup(" SESolve ")
	require.NoError(t, err)
	assert.Equal(t, SESolve, f.Name)
	assert.Equal(t, 16, f.Dim(8))
	assert.Equal(t, "s", f.Unit())

	f, err = Lookup("vec")
	require.NoError(t, err)
	assert.Equal(t, 32, f.Dim(32))
	assert.Equal(t, "µs/op", f.Unit())

	_, err = Lookup("eigen")
	assert.Error(t, err)

	assert.Equal(t, []string{"mat", "mesolve", "sesolve", "vec"}, Names())
	assert.Equal(t, 7, DimOf("custom", 7))
	assert.Equal(t, "", UnitOf("custom"))
}

func TestTuning(t *testing.T) {
	tun, err := NewTuning(1, nil)
	require.NoError(t, err)

	p, err := tun.Param(SESolve, 16)
	require.NoError(t, err)
	assert.Equal(t, 7335.0, p)
	assert.Equal(t, []int{4, 8, 16, 32, 64, 128}, tun.Sizes(MESolve))

	_, err = tun.Param(MESolve, 256)
	assert.Error(t, err, "sizes outside the table are a configuration error")

	quick, err := NewTuning(0.001, nil)
	require.NoError(t, err)
	p, err = quick.Param(Vec, 32)
	require.NoError(t, err)
	assert.Equal(t, 50.0, p)
	p, err = quick.Param(Mat, 256)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p, "iteration counts never drop below one")
	p, err = quick.Param(SESolve, 4)
	require.NoError(t, err)
	assert.InDelta(t, 10.683, p, 1e-9)
}

func TestTuning_Overrides(t *testing.T) {
	tun, err := NewTuning(1, Tables{Vec: {8: 10}})
	require.NoError(t, err)
	assert.Equal(t, []int{8}, tun.Sizes(Vec))
	assert.Equal(t, []int{32, 64, 128, 256}, tun.Sizes(Mat))

	for name, tc := range map[string]struct {
		scale     float64
		overrides Tables
	}{
		"zero scale":       {0, nil},
		"negative scale":   {-1, nil},
		"unknown family":   {1, Tables{"fft": {8: 1}}},
		"bad size":         {1, Tables{Vec: {0: 1}}},
		"non-positive val": {1, Tables{Vec: {8: 0}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewTuning(tc.scale, tc.overrides)
			assert.Error(t, err)
		})
	}
}

func TestBuildPlan(t *testing.T) {
	tun, err := NewTuning(1, nil)
	require.NoError(t, err)

	plan, err := BuildPlan(tun, PlanOptions{Families: []string{"vec", "sesolve"}, Sizes: []int{32}})
	require.NoError(t, err)
	require.Len(t, plan, 3)

	assert.Equal(t, benchmark.Descriptor{Family: Vec, Size: 32, Param: 50000, Variants: benchmark.Variants}, plan[0])
	assert.Equal(t, []benchmark.Variant{benchmark.VariantCSR}, plan[1].Variants)
	assert.Equal(t, []benchmark.Variant{benchmark.VariantDIA}, plan[2].Variants)
	assert.Equal(t, 5462.0, plan[1].Param)

	all, err := BuildPlan(tun, PlanOptions{})
	require.NoError(t, err)
	// 4+4 multiply descriptors, (12+6)*2 solver descriptors.
	assert.Len(t, all, 8+36)

	_, err = BuildPlan(tun, PlanOptions{Families: []string{"mesolve"}, Sizes: []int{4096}})
	assert.Error(t, err)
	_, err = BuildPlan(tun, PlanOptions{Families: []string{"nope"}})
	assert.Error(t, err)
}

func TestInvoker_SolverFamilies(t *testing.T) {
	inv := &Invoker{Now: tickingClock(time.Second)}
	for _, family := range []string{SESolve, MESolve} {
		t.Run(family, func(t *testing.T) {
			d := benchmark.Descriptor{Family: family, Size: 4, Param: 0.5, Variants: benchmark.Variants}
			got, err := inv.Invoke(context.Background(), d)
			require.NoError(t, err)
			assert.Equal(t, map[string]float64{"csr": 1, "dia": 1}, got)
		})
	}
}

func TestInvoker_MultiplyFamilies(t *testing.T) {
	inv := &Invoker{Now: tickingClock(time.Millisecond)}
	for _, family := range []string{Vec, Mat} {
		t.Run(family, func(t *testing.T) {
			d := benchmark.Descriptor{Family: family, Size: 8, Param: 100, Variants: []benchmark.Variant{benchmark.VariantDIA}}
			got, err := inv.Invoke(context.Background(), d)
			require.NoError(t, err)
			assert.Equal(t, map[string]float64{"dia": 10}, got, "1ms over 100 ops is 10µs/op")
		})
	}
}

func TestInvoker_RealClock(t *testing.T) {
	got, err := (&Invoker{}).Invoke(context.Background(),
		benchmark.Descriptor{Family: Vec, Size: 16, Param: 10, Variants: benchmark.Variants})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for name, v := range got {
		assert.GreaterOrEqual(t, v, 0.0, name)
	}
}

func TestInvoker_Errors(t *testing.T) {
	inv := &Invoker{}
	ctx := context.Background()

	_, err := inv.Invoke(ctx, benchmark.Descriptor{Family: "fft", Size: 4, Param: 1, Variants: benchmark.Variants})
	assert.Error(t, err)
	_, err = inv.Invoke(ctx, benchmark.Descriptor{Family: Vec, Size: 4, Param: 1})
	assert.Error(t, err)
	_, err = inv.Invoke(ctx, benchmark.Descriptor{Family: SESolve, Size: 1, Param: 1, Variants: benchmark.Variants})
	assert.Error(t, err)
	_, err = inv.Invoke(ctx, benchmark.Descriptor{Family: Vec, Size: 4, Param: 0, Variants: benchmark.Variants})
	assert.Error(t, err)

	_, err = inv.Invoke(ctx, benchmark.Descriptor{Family: Vec, Size: 4, Param: 1, Variants: []benchmark.Variant{"coo"}})
	var we *benchmark.WorkloadError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, benchmark.Key{Family: Vec, Size: 4, Variant: "coo"}, we.Key)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = inv.Invoke(cancelled, benchmark.Descriptor{Family: SESolve, Size: 4, Param: 100, Variants: benchmark.Variants})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInProcessRunner(t *testing.T) {
	r := &InProcess{Invoker: &Invoker{Now: tickingClock(time.Second)}}
	agg := &benchmark.Aggregator{Runs: 3}
	plan := benchmark.Plan{
		{Family: SESolve, Size: 4, Param: 0.1, Variants: []benchmark.Variant{benchmark.VariantDIA}},
		{Family: "fft", Size: 4, Param: 1, Variants: []benchmark.Variant{benchmark.VariantDIA}},
	}
	res, err := agg.Run(context.Background(), plan, r)
	require.NoError(t, err)

	s, ok := res.Table.Get(benchmark.Key{Family: SESolve, Size: 4, Variant: benchmark.VariantDIA})
	require.True(t, ok)
	assert.Equal(t, 3, s.N)
	assert.Equal(t, 1.0, s.Mean)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "fft", res.Skipped[0].Key.Family)
}
