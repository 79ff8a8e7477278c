// Package quantum implements a minimal per-qubit amplitude simulator:
// independent (alpha, beta) pairs per qubit, single-qubit gates, an
// approximate CNOT, and destructive probabilistic measurement.
//
// This is intentionally not a full 2^n state-vector simulator. Each qubit is
// tracked independently, so the two-qubit CNOT is a per-qubit collapse rule
// and entanglement is not represented.
package quantum

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/bioopt/internal/rng"
)

// Qubit holds the amplitude pair for basis states |0> and |1>.
// Invariant: |Alpha|^2 + |Beta|^2 == 1 up to floating-point tolerance after
// every single-qubit gate.
type Qubit struct {
	Alpha complex128
	Beta  complex128
}

// cnotBias is the |beta| threshold above which the control qubit is treated
// as "mostly |1>" and the target amplitudes are swapped.
const cnotBias = 0.5

// Register is an ordered sequence of qubits. All gate and measurement
// operations address qubits by index.
type Register struct {
	qubits []Qubit
	rand   rng.Source
}

// NewRegister creates a register of n qubits, all initialized to |0>.
// The source drives measurement sampling; if nil, a fixed-seed source is used.
func NewRegister(n int, src rng.Source) (*Register, error) {
	if n < 1 {
		return nil, &ConfigError{Field: "numQubits", Reason: "must be >= 1"}
	}
	if src == nil {
		src = rng.New(0)
	}
	qubits := make([]Qubit, n)
	for i := range qubits {
		qubits[i] = Qubit{Alpha: 1, Beta: 0}
	}
	return &Register{qubits: qubits, rand: src}, nil
}

// Size returns the number of qubits in the register.
func (r *Register) Size() int {
	return len(r.qubits)
}

// Qubit returns a copy of the qubit at index i.
func (r *Register) Qubit(i int) (Qubit, error) {
	if err := r.check(i); err != nil {
		return Qubit{}, err
	}
	return r.qubits[i], nil
}

// Hadamard applies the Hadamard gate to qubit i:
// alpha' = (alpha+beta)/sqrt2, beta' = (alpha-beta)/sqrt2.
// Applying it twice restores the original amplitudes up to floating-point
// tolerance.
func (r *Register) Hadamard(i int) error {
	if err := r.check(i); err != nil {
		return err
	}
	q := &r.qubits[i]
	invSqrt2 := complex(1/math.Sqrt2, 0)
	alpha := (q.Alpha + q.Beta) * invSqrt2
	beta := (q.Alpha - q.Beta) * invSqrt2
	q.Alpha, q.Beta = alpha, beta
	return nil
}

// PauliX applies the bit-flip gate to qubit i, swapping its amplitudes.
// A pure swap: applying it twice restores the original amplitudes exactly.
func (r *Register) PauliX(i int) error {
	if err := r.check(i); err != nil {
		return err
	}
	q := &r.qubits[i]
	q.Alpha, q.Beta = q.Beta, q.Alpha
	return nil
}

// Phase rotates the |1> amplitude of qubit i by theta radians.
func (r *Register) Phase(i int, theta float64) error {
	if err := r.check(i); err != nil {
		return err
	}
	r.qubits[i].Beta *= cmplx.Exp(complex(0, theta))
	return nil
}

// CNOT applies the simplified controlled-NOT rule: when the control qubit's
// |1> amplitude magnitude exceeds the bias threshold, the target's amplitudes
// are swapped. This is a per-qubit approximation of the joint two-qubit gate
// and does not produce entanglement.
func (r *Register) CNOT(control, target int) error {
	if err := r.check(control); err != nil {
		return err
	}
	if err := r.check(target); err != nil {
		return err
	}
	if cmplx.Abs(r.qubits[control].Beta) > cnotBias {
		q := &r.qubits[target]
		q.Alpha, q.Beta = q.Beta, q.Alpha
	}
	return nil
}

// Measure observes qubit i in the computational basis, returning 0 with
// probability |alpha|^2 and 1 otherwise. The qubit collapses to the matching
// definite state; measurement is destructive and irreversible for that qubit.
func (r *Register) Measure(i int) (int, error) {
	if err := r.check(i); err != nil {
		return 0, err
	}
	q := &r.qubits[i]
	p0 := real(q.Alpha)*real(q.Alpha) + imag(q.Alpha)*imag(q.Alpha)
	if r.rand.Float64() < p0 {
		q.Alpha, q.Beta = 1, 0
		return 0, nil
	}
	q.Alpha, q.Beta = 0, 1
	return 1, nil
}

// MeasureAll measures every qubit independently in index order and returns
// the ordered outcomes.
func (r *Register) MeasureAll() ([]int, error) {
	outcomes := make([]int, len(r.qubits))
	for i := range r.qubits {
		bit, err := r.Measure(i)
		if err != nil {
			return nil, err
		}
		outcomes[i] = bit
	}
	return outcomes, nil
}

func (r *Register) check(i int) error {
	if i < 0 || i >= len(r.qubits) {
		return &IndexError{Index: i, Size: len(r.qubits)}
	}
	return nil
}
