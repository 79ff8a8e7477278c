package main

import (
	"testing"

	"github.com/cwbudde/bioopt/internal/quantum"
	"github.com/cwbudde/bioopt/internal/rng"
)

func applyAll(t *testing.T, ops []gateOp, qubits int) *quantum.Register {
	t.Helper()
	reg, err := quantum.NewRegister(qubits, rng.New(1))
	if err != nil {
		t.Fatalf("Failed to create register: %v", err)
	}
	for i, op := range ops {
		if err := op(reg); err != nil {
			t.Fatalf("Gate %d failed: %v", i, err)
		}
	}
	return reg
}

func TestParseGates_EmptyScriptDefaultsToHadamards(t *testing.T) {
	ops, err := parseGates("", 3)
	if err != nil {
		t.Fatalf("Failed to parse empty script: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("Expected 3 default gates, got %d", len(ops))
	}

	// Each default op targets its own qubit: all three leave |0>.
	reg := applyAll(t, ops, 3)
	for i := 0; i < 3; i++ {
		q, err := reg.Qubit(i)
		if err != nil {
			t.Fatalf("Failed to read qubit %d: %v", i, err)
		}
		if q.Beta == 0 {
			t.Errorf("Qubit %d should be in superposition after default Hadamard", i)
		}
	}
}

func TestParseGates_Script(t *testing.T) {
	ops, err := parseGates("x 0; cnot 0 1; p 1 3.14159", 2)
	if err != nil {
		t.Fatalf("Failed to parse script: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("Expected 3 gates, got %d", len(ops))
	}

	// X on 0, then CNOT 0->1 flips the target too.
	reg := applyAll(t, ops, 2)
	bits, err := reg.MeasureAll()
	if err != nil {
		t.Fatalf("Failed to measure: %v", err)
	}
	if bits[0] != 1 || bits[1] != 1 {
		t.Errorf("Expected outcome 11, got %v", bits)
	}
}

func TestParseGates_SkipsEmptyStatements(t *testing.T) {
	ops, err := parseGates("h 0;; x 1 ;", 2)
	if err != nil {
		t.Fatalf("Failed to parse script: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("Expected 2 gates, got %d", len(ops))
	}
}

func TestParseGates_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		script string
	}{
		{"unknown gate", "y 0"},
		{"missing argument", "h"},
		{"extra argument", "x 0 1"},
		{"bad qubit index", "h zero"},
		{"bad angle", "p 0 fast"},
		{"bad cnot target", "cnot 0 one"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseGates(tc.script, 2); err == nil {
				t.Errorf("Expected parse error for %q", tc.script)
			}
		})
	}
}

func TestParseGates_OutOfRangeIndexFailsAtApply(t *testing.T) {
	// Indices are validated against the register, not the parser, so a
	// script can be compiled once and reused across register sizes.
	ops, err := parseGates("h 5", 2)
	if err != nil {
		t.Fatalf("Parse should accept the index: %v", err)
	}

	reg, err := quantum.NewRegister(2, rng.New(1))
	if err != nil {
		t.Fatalf("Failed to create register: %v", err)
	}
	if err := ops[0](reg); err == nil {
		t.Error("Expected index error when applying the gate")
	}
}
