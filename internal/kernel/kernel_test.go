package kernel

import (
	"context"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/cmplxs"
)

func denseMulVec(s *Sparse, x []complex128) []complex128 {
	out := make([]complex128, s.Dim())
	for i := 0; i < s.Dim(); i++ {
		for j := 0; j < s.Dim(); j++ {
			out[i] += s.At(i, j) * x[j]
		}
	}
	return out
}

func testVector(n int) []complex128 {
	v := make([]complex128, n)
	for i := range v {
		v[i] = complex(float64(i%5)-1.5, 0.25*float64(i%3))
	}
	return v
}

func assertClose(t *testing.T, want, got []complex128, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, 0, cmplx.Abs(want[i]-got[i]), tol, "element %d: want %v got %v", i, want[i], got[i])
	}
}

func TestOperators(t *testing.T) {
	a := Destroy(3)
	assert.Equal(t, complex(1, 0), a.At(0, 1))
	assert.Equal(t, complex(math.Sqrt2, 0), a.At(1, 2))
	assert.Equal(t, 2, a.NNZ())

	num := a.Dagger().Mul(a)
	ref := Number(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, 0, cmplx.Abs(num.At(i, j)-ref.At(i, j)), 1e-12)
		}
	}

	k := Kron(Identity(2), a)
	assert.Equal(t, 6, k.Dim())
	assert.Equal(t, a.At(1, 2), k.At(4, 5))
	assert.Equal(t, 4, k.NNZ())

	cancel := Sum(a, a.Scale(-1))
	assert.Equal(t, 0, cancel.NNZ())
}

func TestJaynesCummings(t *testing.T) {
	h, psi0 := JaynesCummings(4)
	require.Equal(t, 8, h.Dim())
	assert.Equal(t, complex(1, 0), psi0[2])

	hd := h.Dagger()
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			assert.Equal(t, h.At(i, j), hd.At(i, j), "H must be Hermitian")
		}
	}
	// |n=1,g⟩ couples to |n=0,e⟩ with strength g.
	assert.InDelta(t, Coupling, real(h.At(1, 2)), 1e-12)
	// The ket |1⟩⊗|0⟩ carries one cavity photon.
	assert.InDelta(t, CavityFreq, real(h.At(2, 2)), 1e-12)
}

func TestFormatsAgree(t *testing.T) {
	h, _ := JaynesCummings(6)
	x := testVector(h.Dim())
	want := denseMulVec(h, x)

	for name, op := range map[string]Operator{"csr": NewCSR(h), "dia": NewDIA(h)} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, h.NNZ(), op.NNZ())
			got := make([]complex128, h.Dim())
			op.MulVec(got, x)
			assertClose(t, want, got, 1e-12)

			m := NewDense(h.Dim(), 3)
			for i := 0; i < h.Dim(); i++ {
				for j := 0; j < 3; j++ {
					m.Set(i, j, x[(i+j)%h.Dim()])
				}
			}
			out := NewDense(h.Dim(), 3)
			op.MulMat(out, m)
			for j := 0; j < 3; j++ {
				col := make([]complex128, h.Dim())
				for i := range col {
					col[i] = m.At(i, j)
				}
				ref := denseMulVec(h, col)
				for i := range ref {
					assert.InDelta(t, 0, cmplx.Abs(ref[i]-out.At(i, j)), 1e-12)
				}
			}
		})
	}
}

func TestDIAOffsets(t *testing.T) {
	h, _ := ShiftedNumber(5)
	assert.Equal(t, []int{-1, 0, 1}, NewDIA(h).Offsets())
}

func TestSESolve_DiagonalPhases(t *testing.T) {
	n := 4
	h := NewCSR(Number(n))
	psi0 := make([]complex128, n)
	for i := range psi0 {
		psi0[i] = 0.5
	}
	tEnd := 1.0
	psi, err := SESolve(context.Background(), h, psi0, tEnd, 0.01)
	require.NoError(t, err)

	want := make([]complex128, n)
	for k := range want {
		want[k] = 0.5 * cmplx.Exp(complex(0, -float64(k)*tEnd))
	}
	assertClose(t, want, psi, 1e-6)
	assert.Equal(t, complex(0.5, 0), psi0[3], "input state is not modified")
}

func TestSESolve_PreservesNorm(t *testing.T) {
	hs, psi0 := JaynesCummings(4)
	step := StepFor(hs.NormInf(), KetSafety)
	for _, op := range []Operator{NewCSR(hs), NewDIA(hs)} {
		psi, err := SESolve(context.Background(), op, psi0, 20, step)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, cmplxs.Norm(psi, 2), 1e-6)
	}
}

func TestMESolve_MatchesPureState(t *testing.T) {
	hs, psi0 := JaynesCummings(3)
	step := StepFor(hs.NormInf(), DensitySafety)
	ctx := context.Background()

	rho, err := MESolve(ctx, NewDIA(hs), Projector(psi0), 5, step)
	require.NoError(t, err)
	psi, err := SESolve(ctx, NewDIA(hs), psi0, 5, step)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, real(rho.Trace()), 1e-8)
	assertClose(t, Projector(psi).Data, rho.Data, 1e-6)
}

func TestSolve_Errors(t *testing.T) {
	op := NewCSR(Number(3))
	ctx := context.Background()

	_, err := SESolve(ctx, op, make([]complex128, 2), 1, 0.1)
	assert.Error(t, err)
	_, err = SESolve(ctx, op, Basis(3, 0), -1, 0.1)
	assert.Error(t, err)
	_, err = SESolve(ctx, op, Basis(3, 0), 1, 0)
	assert.Error(t, err)
	_, err = MESolve(ctx, op, NewDense(2, 2), 1, 0.1)
	assert.Error(t, err)

	psi, err := SESolve(ctx, op, Basis(3, 1), 0, 0.1)
	require.NoError(t, err)
	assert.Equal(t, Basis(3, 1), psi)
}

func TestSolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SESolve(ctx, NewCSR(Number(3)), Basis(3, 0), 1e6, 0.01)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStepFor(t *testing.T) {
	assert.Equal(t, MaxStep, StepFor(0, KetSafety))
	assert.Equal(t, MaxStep, StepFor(1, KetSafety))
	assert.InDelta(t, 0.025, StepFor(100, KetSafety), 1e-15)
}
