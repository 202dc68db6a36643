package kernel

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"
)

// MaxStep caps the integration step regardless of the generator norm.
const MaxStep = 0.05

// Stability factors for StepFor. Classic RK4 is stable on the imaginary axis
// up to |λ·dt| = 2√2; the von Neumann generator has twice the spectral radius
// of H.
const (
	KetSafety     = 2.5
	DensitySafety = 1.25
)

// checkEvery is the number of steps between context checks.
const checkEvery = 256

// StepFor returns a fixed RK4 step for a Hamiltonian with the given infinity
// norm.
func StepFor(norm, safety float64) float64 {
	if norm <= 0 {
		return MaxStep
	}
	return math.Min(MaxStep, safety/norm)
}

// SESolve integrates the Schrödinger equation d|ψ⟩/dt = -iH|ψ⟩ from 0 to
// tEnd with classic RK4 and returns the final state. The number of steps is
// ceil(tEnd/step); the actual step is shrunk so that the last one lands on
// tEnd exactly.
func SESolve(ctx context.Context, h Operator, psi0 []complex128, tEnd, step float64) ([]complex128, error) {
	if len(psi0) != h.Dim() {
		return nil, fmt.Errorf("state length %d does not match operator dimension %d", len(psi0), h.Dim())
	}
	psi := append([]complex128(nil), psi0...)
	deriv := func(dst, x []complex128) {
		h.MulVec(dst, x)
		cmplxs.Scale(-1i, dst)
	}
	if err := integrate(ctx, psi, tEnd, step, deriv); err != nil {
		return nil, err
	}
	return psi, nil
}

// MESolve integrates the von Neumann equation dρ/dt = -i[H, ρ] for a
// Hermitian H with no collapse operators. ρH is formed as (Hρ)†, so rho0 must
// be Hermitian.
func MESolve(ctx context.Context, h Operator, rho0 *Dense, tEnd, step float64) (*Dense, error) {
	n := h.Dim()
	if rho0.Rows != n || rho0.Cols != n {
		return nil, fmt.Errorf("density matrix %dx%d does not match operator dimension %d", rho0.Rows, rho0.Cols, n)
	}
	rho := rho0.Clone()
	hx := NewDense(n, n)
	deriv := func(dst, x []complex128) {
		h.MulMat(hx, &Dense{Rows: n, Cols: n, Data: x})
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				c := hx.Data[i*n+j] - cmplx.Conj(hx.Data[j*n+i])
				dst[i*n+j] = complex(imag(c), -real(c))
			}
		}
	}
	if err := integrate(ctx, rho.Data, tEnd, step, deriv); err != nil {
		return nil, err
	}
	return rho, nil
}

func integrate(ctx context.Context, x []complex128, tEnd, step float64, deriv func(dst, x []complex128)) error {
	if tEnd < 0 || math.IsNaN(tEnd) || math.IsInf(tEnd, 0) {
		return fmt.Errorf("invalid time horizon %v", tEnd)
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return fmt.Errorf("invalid step %v", step)
	}
	if tEnd == 0 {
		return nil
	}
	steps := int(math.Ceil(tEnd / step))
	dt := tEnd / float64(steps)
	half, full, sixth := complex(dt/2, 0), complex(dt, 0), complex(dt/6, 0)

	n := len(x)
	k := make([]complex128, n)
	tmp := make([]complex128, n)
	acc := make([]complex128, n)
	for s := 0; s < steps; s++ {
		if s%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		deriv(k, x)
		copy(acc, k)
		cmplxs.AddScaledTo(tmp, x, half, k)
		deriv(k, tmp)
		cmplxs.AddScaled(acc, 2, k)
		cmplxs.AddScaledTo(tmp, x, half, k)
		deriv(k, tmp)
		cmplxs.AddScaled(acc, 2, k)
		cmplxs.AddScaledTo(tmp, x, full, k)
		deriv(k, tmp)
		cmplxs.Add(acc, k)
		cmplxs.AddScaled(x, sixth, acc)
	}
	return nil
}
