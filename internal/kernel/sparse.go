// Package kernel holds the numerical kernels the benchmarks time: sparse
// operators in diagonal and compressed-row storage, dense complex matrices,
// and fixed-step integrators for closed quantum systems.
package kernel

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// Version identifies the kernel build. It is overridden at link time with
// -ldflags "-X kernbench/internal/kernel.Version=...".
var Version = "dev"

type coord struct{ row, col int }

type entry struct {
	row, col int
	val      complex128
}

// Sparse is a square matrix in coordinate form. It is the assembly format for
// operators; convert it with NewCSR or NewDIA before timing anything.
type Sparse struct {
	n int
	m map[coord]complex128
}

// NewSparse returns an empty n×n matrix.
func NewSparse(n int) *Sparse {
	return &Sparse{n: n, m: make(map[coord]complex128)}
}

// Dim returns the matrix dimension.
func (s *Sparse) Dim() int { return s.n }

// Add accumulates v into element (i, j).
func (s *Sparse) Add(i, j int, v complex128) {
	if i < 0 || j < 0 || i >= s.n || j >= s.n {
		panic(fmt.Sprintf("kernel: index (%d,%d) out of range for dimension %d", i, j, s.n))
	}
	if v == 0 {
		return
	}
	c := coord{i, j}
	sum := s.m[c] + v
	if sum == 0 {
		delete(s.m, c)
		return
	}
	s.m[c] = sum
}

// At returns element (i, j).
func (s *Sparse) At(i, j int) complex128 { return s.m[coord{i, j}] }

// NNZ returns the number of stored non-zero elements.
func (s *Sparse) NNZ() int { return len(s.m) }

// entries returns the non-zeros in row-major order.
func (s *Sparse) entries() []entry {
	out := make([]entry, 0, len(s.m))
	for c, v := range s.m {
		out = append(out, entry{c.row, c.col, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].row != out[j].row {
			return out[i].row < out[j].row
		}
		return out[i].col < out[j].col
	})
	return out
}

// Identity returns the n×n identity.
func Identity(n int) *Sparse {
	s := NewSparse(n)
	for i := 0; i < n; i++ {
		s.Add(i, i, 1)
	}
	return s
}

// Destroy returns the truncated annihilation operator on n levels.
func Destroy(n int) *Sparse {
	s := NewSparse(n)
	for i := 1; i < n; i++ {
		s.Add(i-1, i, complex(math.Sqrt(float64(i)), 0))
	}
	return s
}

// Number returns the number operator a†a on n levels.
func Number(n int) *Sparse {
	s := NewSparse(n)
	for i := 1; i < n; i++ {
		s.Add(i, i, complex(float64(i), 0))
	}
	return s
}

// Kron returns the tensor product a⊗b.
func Kron(a, b *Sparse) *Sparse {
	out := NewSparse(a.n * b.n)
	for ca, va := range a.m {
		for cb, vb := range b.m {
			out.Add(ca.row*b.n+cb.row, ca.col*b.n+cb.col, va*vb)
		}
	}
	return out
}

// Dagger returns the conjugate transpose.
func (s *Sparse) Dagger() *Sparse {
	out := NewSparse(s.n)
	for c, v := range s.m {
		out.Add(c.col, c.row, cmplx.Conj(v))
	}
	return out
}

// Scale returns c·s.
func (s *Sparse) Scale(c complex128) *Sparse {
	out := NewSparse(s.n)
	for k, v := range s.m {
		out.Add(k.row, k.col, c*v)
	}
	return out
}

// Mul returns the product s·o.
func (s *Sparse) Mul(o *Sparse) *Sparse {
	if s.n != o.n {
		panic(fmt.Sprintf("kernel: dimension mismatch %d vs %d", s.n, o.n))
	}
	byRow := make(map[int][]entry)
	for _, e := range o.entries() {
		byRow[e.row] = append(byRow[e.row], e)
	}
	out := NewSparse(s.n)
	for c, v := range s.m {
		for _, e := range byRow[c.col] {
			out.Add(c.row, e.col, v*e.val)
		}
	}
	return out
}

// Sum adds matrices of equal dimension.
func Sum(terms ...*Sparse) *Sparse {
	if len(terms) == 0 {
		return NewSparse(0)
	}
	out := NewSparse(terms[0].n)
	for _, t := range terms {
		if t.n != out.n {
			panic(fmt.Sprintf("kernel: dimension mismatch %d vs %d", t.n, out.n))
		}
		for c, v := range t.m {
			out.Add(c.row, c.col, v)
		}
	}
	return out
}

// NormInf returns the maximum absolute row sum.
func (s *Sparse) NormInf() float64 {
	rows := make([]float64, s.n)
	for c, v := range s.m {
		rows[c.row] += cmplx.Abs(v)
	}
	var max float64
	for _, r := range rows {
		if r > max {
			max = r
		}
	}
	return max
}
