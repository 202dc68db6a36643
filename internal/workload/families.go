// Package workload defines the benchmarked operation families, their tuning
// tables and the invoker that times them against the numerical kernels.
package workload

import (
	"fmt"
	"sort"
	"strings"
)

// Kind separates solver families, whose size is a resonator truncation and
// whose timing is wall seconds per solve, from multiply families, timed in
// microseconds per application.
type Kind int

const (
	Solver Kind = iota
	Multiply
)

// Family describes one operation family.
type Family struct {
	Name        string
	Kind        Kind
	Description string
}

// Unit returns the timing unit reported for the family.
func (f Family) Unit() string {
	if f.Kind == Solver {
		return "s"
	}
	return "µs/op"
}

// Dim returns the Hilbert space dimension for a problem size.
func (f Family) Dim(size int) int {
	if f.Kind == Solver {
		return 2 * size
	}
	return size
}

const (
	SESolve = "sesolve"
	MESolve = "mesolve"
	Vec     = "vec"
	Mat     = "mat"
)

var families = map[string]Family{
	SESolve: {SESolve, Solver, "Schrödinger evolution of a Jaynes–Cummings ket"},
	MESolve: {MESolve, Solver, "von Neumann evolution of a Jaynes–Cummings density matrix"},
	Vec:     {Vec, Multiply, "sparse operator times dense vector"},
	Mat:     {Mat, Multiply, "sparse operator times dense matrix"},
}

// Lookup returns the family with the given name.
func Lookup(name string) (Family, error) {
	f, ok := families[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Family{}, fmt.Errorf("unknown family %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return f, nil
}

// Names returns all family names in sorted order.
func Names() []string {
	names := make([]string, 0, len(families))
	for n := range families {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DimOf returns the displayed dimension for a family and size. Unknown
// families display their size.
func DimOf(family string, size int) int {
	if f, ok := families[family]; ok {
		return f.Dim(size)
	}
	return size
}

// UnitOf returns the timing unit of a family, or "" when it is unknown.
func UnitOf(family string) string {
	if f, ok := families[family]; ok {
		return f.Unit()
	}
	return ""
}
