package kernel

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/cmplxs"
)

// Operator is a square sparse matrix in a storage format that can be applied
// to dense vectors and matrices.
type Operator interface {
	Dim() int
	NNZ() int
	// MulVec stores A·x in dst. dst and x must not alias.
	MulVec(dst, x []complex128)
	// MulMat stores A·x in dst. dst and x must not alias.
	MulMat(dst, x *Dense)
}

// CSR stores a matrix in compressed sparse row form.
type CSR struct {
	n       int
	indptr  []int
	indices []int
	data    []complex128
}

// NewCSR converts s to compressed sparse row storage.
func NewCSR(s *Sparse) *CSR {
	es := s.entries()
	c := &CSR{
		n:       s.n,
		indptr:  make([]int, s.n+1),
		indices: make([]int, len(es)),
		data:    make([]complex128, len(es)),
	}
	for k, e := range es {
		c.indptr[e.row+1]++
		c.indices[k] = e.col
		c.data[k] = e.val
	}
	for i := 0; i < s.n; i++ {
		c.indptr[i+1] += c.indptr[i]
	}
	return c
}

func (c *CSR) Dim() int { return c.n }
func (c *CSR) NNZ() int { return len(c.data) }

func (c *CSR) MulVec(dst, x []complex128) {
	checkVec(c.n, dst, x)
	for i := 0; i < c.n; i++ {
		var sum complex128
		for k := c.indptr[i]; k < c.indptr[i+1]; k++ {
			sum += c.data[k] * x[c.indices[k]]
		}
		dst[i] = sum
	}
}

func (c *CSR) MulMat(dst, x *Dense) {
	checkMat(c.n, dst, x)
	dst.Zero()
	for i := 0; i < c.n; i++ {
		row := dst.Row(i)
		for k := c.indptr[i]; k < c.indptr[i+1]; k++ {
			cmplxs.AddScaled(row, c.data[k], x.Row(c.indices[k]))
		}
	}
}

// DIA stores a matrix as a set of dense diagonals. data[d][i] holds element
// (i, i+offsets[d]); entries falling outside the matrix are zero.
type DIA struct {
	n       int
	offsets []int
	data    [][]complex128
	nnz     int
}

// NewDIA converts s to diagonal storage.
func NewDIA(s *Sparse) *DIA {
	es := s.entries()
	byOffset := make(map[int][]complex128)
	var offsets []int
	for _, e := range es {
		off := e.col - e.row
		diag, ok := byOffset[off]
		if !ok {
			diag = make([]complex128, s.n)
			byOffset[off] = diag
			offsets = append(offsets, off)
		}
		diag[e.row] = e.val
	}
	sort.Ints(offsets)
	d := &DIA{n: s.n, offsets: offsets, nnz: len(es)}
	for _, off := range offsets {
		d.data = append(d.data, byOffset[off])
	}
	return d
}

func (d *DIA) Dim() int { return d.n }
func (d *DIA) NNZ() int { return d.nnz }

// Offsets returns the stored diagonal offsets in ascending order.
func (d *DIA) Offsets() []int { return append([]int(nil), d.offsets...) }

// span returns the row range [lo, hi) for which column i+off is in range.
func (d *DIA) span(off int) (int, int) {
	lo, hi := 0, d.n
	if off < 0 {
		lo = -off
	} else {
		hi = d.n - off
	}
	return lo, hi
}

func (d *DIA) MulVec(dst, x []complex128) {
	checkVec(d.n, dst, x)
	for i := range dst {
		dst[i] = 0
	}
	for k, off := range d.offsets {
		diag := d.data[k]
		lo, hi := d.span(off)
		for i := lo; i < hi; i++ {
			dst[i] += diag[i] * x[i+off]
		}
	}
}

func (d *DIA) MulMat(dst, x *Dense) {
	checkMat(d.n, dst, x)
	dst.Zero()
	for k, off := range d.offsets {
		diag := d.data[k]
		lo, hi := d.span(off)
		for i := lo; i < hi; i++ {
			if diag[i] != 0 {
				cmplxs.AddScaled(dst.Row(i), diag[i], x.Row(i+off))
			}
		}
	}
}

func checkVec(n int, dst, x []complex128) {
	if len(dst) != n || len(x) != n {
		panic(fmt.Sprintf("kernel: vector length %d/%d does not match dimension %d", len(dst), len(x), n))
	}
}

func checkMat(n int, dst, x *Dense) {
	if x.Rows != n || dst.Rows != n || dst.Cols != x.Cols {
		panic(fmt.Sprintf("kernel: matrix shape %dx%d -> %dx%d does not match dimension %d",
			x.Rows, x.Cols, dst.Rows, dst.Cols, n))
	}
}
