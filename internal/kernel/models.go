package kernel

// Jaynes–Cummings couplings.
const (
	CavityFreq = 1.0
	AtomFreq   = 1.0
	Coupling   = 0.1
)

// JaynesCummings returns the Hamiltonian of a resonator truncated to nRes
// levels coupled to a two-level atom,
//
//	H = wc a†a + wa σ+σ- + g (a†σ- + aσ+)
//
// on the space resonator⊗atom, and the initial state |1⟩⊗|0⟩.
func JaynesCummings(nRes int) (*Sparse, []complex128) {
	a := Kron(Destroy(nRes), Identity(2))
	sm := Kron(Identity(nRes), Destroy(2))
	ad, sp := a.Dagger(), sm.Dagger()

	h := Sum(
		ad.Mul(a).Scale(CavityFreq),
		sp.Mul(sm).Scale(AtomFreq),
		Sum(ad.Mul(sm), a.Mul(sp)).Scale(Coupling),
	)
	return h, Basis(2*nRes, 2)
}

// ShiftedNumber returns num(n) + a + a†, a tridiagonal operator used by the
// multiply benchmarks, and the ground state |0⟩.
func ShiftedNumber(n int) (*Sparse, []complex128) {
	a := Destroy(n)
	return Sum(Number(n), a, a.Dagger()), Basis(n, 0)
}
