package workload

import (
	"fmt"

	"kernbench/internal/benchmark"
)

// PlanOptions selects the configurations to benchmark. Empty fields select
// everything.
type PlanOptions struct {
	Families []string
	Sizes    []int
	Variants []benchmark.Variant
}

// BuildPlan expands opts into trial descriptors, resolving every tuning
// parameter up front so that a missing tuning entry fails before any trial
// runs. Solver families get one descriptor per variant; multiply families
// time all variants in one invocation.
func BuildPlan(t *Tuning, opts PlanOptions) (benchmark.Plan, error) {
	names := opts.Families
	if len(names) == 0 {
		names = Names()
	}
	variants := opts.Variants
	if len(variants) == 0 {
		variants = append([]benchmark.Variant(nil), benchmark.Variants...)
	}

	var plan benchmark.Plan
	seen := make(map[string]bool)
	for _, name := range names {
		f, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true

		sizes := opts.Sizes
		if len(sizes) == 0 {
			sizes = t.Sizes(f.Name)
		}
		for _, size := range sizes {
			if size < minSize(f) {
				return nil, fmt.Errorf("%s: size %d is below the minimum of %d", f.Name, size, minSize(f))
			}
			p, err := t.Param(f.Name, size)
			if err != nil {
				return nil, err
			}
			if f.Kind == Multiply {
				plan = append(plan, benchmark.Descriptor{Family: f.Name, Size: size, Param: p, Variants: variants})
				continue
			}
			for _, v := range variants {
				plan = append(plan, benchmark.Descriptor{Family: f.Name, Size: size, Param: p, Variants: []benchmark.Variant{v}})
			}
		}
	}
	return plan, nil
}

func minSize(f Family) int {
	if f.Kind == Solver {
		return 2
	}
	return 1
}
