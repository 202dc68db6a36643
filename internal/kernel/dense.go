package kernel

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"
)

// Dense is a row-major complex matrix.
type Dense struct {
	Rows, Cols int
	Data       []complex128
}

// NewDense returns a zero rows×cols matrix.
func NewDense(rows, cols int) *Dense {
	return &Dense{Rows: rows, Cols: cols, Data: make([]complex128, rows*cols)}
}

// Row returns row i as a slice aliasing the matrix storage.
func (d *Dense) Row(i int) []complex128 {
	return d.Data[i*d.Cols : (i+1)*d.Cols]
}

// At returns element (i, j).
func (d *Dense) At(i, j int) complex128 { return d.Data[i*d.Cols+j] }

// Set stores v at (i, j).
func (d *Dense) Set(i, j int, v complex128) { d.Data[i*d.Cols+j] = v }

// Zero clears all elements.
func (d *Dense) Zero() {
	for i := range d.Data {
		d.Data[i] = 0
	}
}

// Clone returns a deep copy.
func (d *Dense) Clone() *Dense {
	out := &Dense{Rows: d.Rows, Cols: d.Cols, Data: make([]complex128, len(d.Data))}
	copy(out.Data, d.Data)
	return out
}

// Trace returns the sum of the diagonal.
func (d *Dense) Trace() complex128 {
	var t complex128
	for i := 0; i < d.Rows && i < d.Cols; i++ {
		t += d.At(i, i)
	}
	return t
}

// Projector returns |psi⟩⟨psi|.
func Projector(psi []complex128) *Dense {
	n := len(psi)
	out := NewDense(n, n)
	for i := 0; i < n; i++ {
		row := out.Row(i)
		cmplxs.AddScaled(row, psi[i], conjugate(psi))
	}
	return out
}

// Basis returns the n-dimensional basis ket |k⟩.
func Basis(n, k int) []complex128 {
	if k < 0 || k >= n {
		panic(fmt.Sprintf("kernel: basis index %d out of range for dimension %d", k, n))
	}
	v := make([]complex128, n)
	v[k] = 1
	return v
}

func conjugate(v []complex128) []complex128 {
	out := make([]complex128, len(v))
	for i, x := range v {
		out[i] = cmplx.Conj(x)
	}
	return out
}
