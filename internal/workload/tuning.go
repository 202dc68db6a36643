package workload

import (
	"fmt"
	"math"
	"sort"
)

// Tables maps a family to its per-size tuning parameter: the integration
// horizon for solver families, the iteration count for multiply families.
type Tables map[string]map[int]float64

// DefaultTables returns the built-in tuning, sized so that one trial takes on
// the order of a tenth of a second.
func DefaultTables() Tables {
	return Tables{
		SESolve: {
			4: 10683, 8: 8778, 16: 7335, 32: 5462, 64: 3426, 128: 1984,
			256: 1106, 512: 589, 1024: 250, 2048: 140, 4096: 75, 5000: 55,
		},
		MESolve: {4: 24509, 8: 8333, 16: 2349, 32: 589, 64: 170, 128: 42},
		Vec:     {32: 50000, 64: 20000, 128: 5000, 256: 2000},
		Mat:     {32: 20000, 64: 5000, 128: 1000, 256: 200},
	}
}

// Tuning resolves the tuning parameter of every planned configuration.
type Tuning struct {
	scale  float64
	tables Tables
}

// NewTuning merges overrides into the default tables and applies scale to
// every parameter. An override replaces a family's whole table.
func NewTuning(scale float64, overrides Tables) (*Tuning, error) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("tuning scale must be a positive number, got %v", scale)
	}
	tables := DefaultTables()
	for family, table := range overrides {
		if _, err := Lookup(family); err != nil {
			return nil, fmt.Errorf("tuning override: %w", err)
		}
		for size, p := range table {
			if size < 1 {
				return nil, fmt.Errorf("tuning override %s: size %d must be positive", family, size)
			}
			if !(p > 0) || math.IsInf(p, 0) {
				return nil, fmt.Errorf("tuning override %s/%d: parameter must be positive, got %v", family, size, p)
			}
		}
		tables[family] = table
	}
	return &Tuning{scale: scale, tables: tables}, nil
}

// Scale returns the factor applied to every parameter.
func (t *Tuning) Scale() float64 { return t.scale }

// Param returns the scaled tuning parameter for family at size. Iteration
// counts are rounded and never drop below one.
func (t *Tuning) Param(family string, size int) (float64, error) {
	f, err := Lookup(family)
	if err != nil {
		return 0, err
	}
	p, ok := t.tables[f.Name][size]
	if !ok {
		return 0, fmt.Errorf("no tuning for %s at size %d (tuned sizes: %v)", f.Name, size, t.Sizes(f.Name))
	}
	p *= t.scale
	if f.Kind == Multiply {
		p = math.Max(1, math.Round(p))
	}
	return p, nil
}

// Sizes returns the tuned sizes of a family in ascending order.
func (t *Tuning) Sizes(family string) []int {
	sizes := make([]int, 0, len(t.tables[family]))
	for s := range t.tables[family] {
		sizes = append(sizes, s)
	}
	sort.Ints(sizes)
	return sizes
}
