package workload

import (
	"context"
	"fmt"
	"time"

	"kernbench/internal/benchmark"
	"kernbench/internal/kernel"
)

// Invoker runs one descriptor in the current process and returns the elapsed
// time of each variant, keyed by variant name. Operator assembly and format
// conversion happen before the clock starts.
type Invoker struct {
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (inv *Invoker) now() time.Time {
	if inv != nil && inv.Now != nil {
		return inv.Now()
	}
	return time.Now()
}

// Invoke times d. Solver values are seconds per solve; multiply values are
// microseconds per application.
func (inv *Invoker) Invoke(ctx context.Context, d benchmark.Descriptor) (map[string]float64, error) {
	f, err := Lookup(d.Family)
	if err != nil {
		return nil, err
	}
	if len(d.Variants) == 0 {
		return nil, fmt.Errorf("%s: no variants requested", d)
	}
	if d.Size < minSize(f) {
		return nil, fmt.Errorf("%s: size %d is below the minimum of %d", d, d.Size, minSize(f))
	}
	if !(d.Param > 0) {
		return nil, fmt.Errorf("%s: tuning parameter must be positive, got %v", d, d.Param)
	}

	out := make(map[string]float64, len(d.Variants))
	for _, v := range d.Variants {
		var elapsed float64
		var err error
		switch f.Name {
		case SESolve:
			elapsed, err = inv.sesolve(ctx, d.Size, v, d.Param)
		case MESolve:
			elapsed, err = inv.mesolve(ctx, d.Size, v, d.Param)
		case Vec:
			elapsed, err = inv.mulVec(ctx, d.Size, v, iterations(d.Param))
		case Mat:
			elapsed, err = inv.mulMat(ctx, d.Size, v, iterations(d.Param))
		}
		if err != nil {
			return nil, &benchmark.WorkloadError{
				Key: benchmark.Key{Family: f.Name, Size: d.Size, Variant: v},
				Err: err,
			}
		}
		out[string(v)] = elapsed
	}
	return out, nil
}

func iterations(p float64) int {
	n := int(p)
	if n < 1 {
		return 1
	}
	return n
}

func convert(s *kernel.Sparse, v benchmark.Variant) (kernel.Operator, error) {
	switch v {
	case benchmark.VariantDIA:
		return kernel.NewDIA(s), nil
	case benchmark.VariantCSR:
		return kernel.NewCSR(s), nil
	}
	return nil, fmt.Errorf("unsupported variant %q", v)
}

func (inv *Invoker) sesolve(ctx context.Context, nRes int, v benchmark.Variant, tEnd float64) (float64, error) {
	h, psi0 := kernel.JaynesCummings(nRes)
	op, err := convert(h, v)
	if err != nil {
		return 0, err
	}
	step := kernel.StepFor(h.NormInf(), kernel.KetSafety)

	start := inv.now()
	if _, err := kernel.SESolve(ctx, op, psi0, tEnd, step); err != nil {
		return 0, err
	}
	return inv.now().Sub(start).Seconds(), nil
}

func (inv *Invoker) mesolve(ctx context.Context, nRes int, v benchmark.Variant, tEnd float64) (float64, error) {
	h, psi0 := kernel.JaynesCummings(nRes)
	op, err := convert(h, v)
	if err != nil {
		return 0, err
	}
	rho0 := kernel.Projector(psi0)
	step := kernel.StepFor(h.NormInf(), kernel.DensitySafety)

	start := inv.now()
	if _, err := kernel.MESolve(ctx, op, rho0, tEnd, step); err != nil {
		return 0, err
	}
	return inv.now().Sub(start).Seconds(), nil
}

func (inv *Invoker) mulVec(ctx context.Context, n int, v benchmark.Variant, iters int) (float64, error) {
	h, psi := kernel.ShiftedNumber(n)
	op, err := convert(h, v)
	if err != nil {
		return 0, err
	}
	dst := make([]complex128, n)

	start := inv.now()
	for i := 0; i < iters; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		op.MulVec(dst, psi)
	}
	return perOp(inv.now().Sub(start), iters), nil
}

func (inv *Invoker) mulMat(ctx context.Context, n int, v benchmark.Variant, iters int) (float64, error) {
	h, psi := kernel.ShiftedNumber(n)
	op, err := convert(h, v)
	if err != nil {
		return 0, err
	}
	rho := kernel.Projector(psi)
	dst := kernel.NewDense(n, n)

	start := inv.now()
	for i := 0; i < iters; i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		op.MulMat(dst, rho)
	}
	return perOp(inv.now().Sub(start), iters), nil
}

func perOp(d time.Duration, iters int) float64 {
	return float64(d.Nanoseconds()) / 1e3 / float64(iters)
}

// InProcess is a TrialRunner that invokes workloads directly, without
// isolation.
type InProcess struct {
	Invoker *Invoker
}

func (p *InProcess) RunTrial(ctx context.Context, d benchmark.Descriptor) benchmark.Outcome {
	values, err := p.Invoker.Invoke(ctx, d)
	if err != nil {
		return benchmark.Outcome{Failure: err}
	}
	return benchmark.Outcome{Values: values}
}
