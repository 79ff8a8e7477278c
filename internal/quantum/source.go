package quantum

import "github.com/cwbudde/bioopt/internal/rng"

// Source adapts a register into an rng.Source: each bit comes from putting a
// work qubit into equal superposition with a Hadamard and measuring it. This
// is the extension point that lets quantum-sampled randomness feed the
// optimizers; the driving measurement sampler stays seedable, so tests remain
// deterministic.
type Source struct {
	reg *Register
}

// NewSource returns a Source backed by a single-qubit register whose
// measurement sampling is driven by src.
func NewSource(src rng.Source) *Source {
	reg, err := NewRegister(1, src)
	if err != nil {
		// NewRegister only fails for n < 1.
		panic(err)
	}
	return &Source{reg: reg}
}

// Bit samples one unbiased bit.
func (s *Source) Bit() int {
	// Measurement collapsed the qubit to a definite state; Hadamard puts it
	// back into equal superposition regardless of which state that was, up to
	// a sign that does not affect probabilities.
	s.reg.Hadamard(0)
	bit, _ := s.reg.Measure(0)
	return bit
}

// Float64 assembles 53 sampled bits into a uniform draw in [0, 1).
func (s *Source) Float64() float64 {
	var v uint64
	for i := 0; i < 53; i++ {
		v = v<<1 | uint64(s.Bit())
	}
	return float64(v) / (1 << 53)
}

// Intn returns a uniform draw in [0, n) by rejection sampling over the
// smallest covering power of two. Panics if n <= 0, matching rand.Intn.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("quantum: Intn called with n <= 0")
	}
	bits := 0
	for 1<<bits < n {
		bits++
	}
	for {
		var v int
		for i := 0; i < bits; i++ {
			v = v<<1 | s.Bit()
		}
		if v < n {
			return v
		}
	}
}
