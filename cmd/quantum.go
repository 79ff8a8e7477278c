package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/bioopt/internal/quantum"
	"github.com/cwbudde/bioopt/internal/rng"
	"github.com/spf13/cobra"
)

var (
	quantumQubits int
	quantumShots  int
	quantumSeed   int64
	quantumGates  string
)

var quantumCmd = &cobra.Command{
	Use:   "quantum",
	Short: "Simulate a small quantum register",
	Long: `Prepares a quantum register, applies a gate script, and samples
measurement outcomes over repeated shots.

The gate script is a semicolon-separated list of operations:

  h <i>           Hadamard on qubit i
  x <i>           Pauli-X on qubit i
  p <i> <theta>   phase rotation on qubit i by theta radians
  cnot <c> <t>    controlled-NOT with control c and target t

Example: bioopt quantum --qubits 2 --gates "h 0; cnot 0 1" --shots 1000`,
	RunE: runQuantum,
}

func init() {
	quantumCmd.Flags().IntVar(&quantumQubits, "qubits", 2, "Number of qubits")
	quantumCmd.Flags().IntVar(&quantumShots, "shots", 1000, "Measurement repetitions")
	quantumCmd.Flags().Int64Var(&quantumSeed, "seed", 42, "Random seed")
	quantumCmd.Flags().StringVar(&quantumGates, "gates", "", "Gate script (default: Hadamard on every qubit)")

	rootCmd.AddCommand(quantumCmd)
}

type gateOp func(*quantum.Register) error

// parseGates compiles the script once so every shot replays the same circuit.
func parseGates(script string, qubits int) ([]gateOp, error) {
	if script == "" {
		ops := make([]gateOp, qubits)
		for i := 0; i < qubits; i++ {
			q := i
			ops[q] = func(r *quantum.Register) error { return r.Hadamard(q) }
		}
		return ops, nil
	}

	var ops []gateOp
	for _, stmt := range strings.Split(script, ";") {
		fields := strings.Fields(stmt)
		if len(fields) == 0 {
			continue
		}

		name := strings.ToLower(fields[0])
		argc := map[string]int{"h": 1, "x": 1, "p": 2, "cnot": 2}[name]
		if argc == 0 {
			return nil, fmt.Errorf("unknown gate %q", fields[0])
		}
		if len(fields)-1 != argc {
			return nil, fmt.Errorf("gate %q wants %d argument(s), got %d", name, argc, len(fields)-1)
		}

		i, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("gate %q: bad qubit index %q", name, fields[1])
		}

		switch name {
		case "h":
			ops = append(ops, func(r *quantum.Register) error { return r.Hadamard(i) })
		case "x":
			ops = append(ops, func(r *quantum.Register) error { return r.PauliX(i) })
		case "p":
			theta, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("gate %q: bad angle %q", name, fields[2])
			}
			ops = append(ops, func(r *quantum.Register) error { return r.Phase(i, theta) })
		case "cnot":
			t, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("gate %q: bad qubit index %q", name, fields[2])
			}
			ops = append(ops, func(r *quantum.Register) error { return r.CNOT(i, t) })
		}
	}
	return ops, nil
}

func runQuantum(cmd *cobra.Command, args []string) error {
	if quantumShots < 1 {
		return fmt.Errorf("shots must be >= 1, got %d", quantumShots)
	}

	ops, err := parseGates(quantumGates, quantumQubits)
	if err != nil {
		return err
	}

	// One source across all shots; each shot re-prepares the register because
	// measurement collapses it.
	src := rng.New(quantumSeed)
	counts := make(map[string]int)

	for shot := 0; shot < quantumShots; shot++ {
		reg, err := quantum.NewRegister(quantumQubits, src)
		if err != nil {
			return err
		}
		for _, op := range ops {
			if err := op(reg); err != nil {
				return err
			}
		}

		bits, err := reg.MeasureAll()
		if err != nil {
			return err
		}
		var sb strings.Builder
		for _, b := range bits {
			sb.WriteByte(byte('0' + b))
		}
		counts[sb.String()]++
	}

	outcomes := make([]string, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OUTCOME\tCOUNT\tPROBABILITY")
	fmt.Fprintln(w, "-------\t-----\t-----------")
	for _, outcome := range outcomes {
		fmt.Fprintf(w, "%s\t%d\t%.4f\n", outcome, counts[outcome], float64(counts[outcome])/float64(quantumShots))
	}
	w.Flush()

	fmt.Printf("\n%d shots over %d qubit(s), %d distinct outcome(s)\n", quantumShots, quantumQubits, len(counts))
	return nil
}
