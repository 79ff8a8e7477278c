package store

import (
	"fmt"
	"time"
)

// JobConfig holds the configuration of an optimization job (checkpoint copy).
// Kept here rather than in the server package to avoid import cycles.
type JobConfig struct {
	Algorithm  string `json:"algorithm"` // genetic, pso, aco, mayfly
	Objective  string `json:"objective"` // built-in objective name
	Dimensions int    `json:"dimensions"`
	Population int    `json:"population"`
	Iterations int    `json:"iterations"`

	MutationRate  *float64 `json:"mutationRate,omitempty"`
	CrossoverRate *float64 `json:"crossoverRate,omitempty"`
	Inertia       *float64 `json:"inertia,omitempty"`
	Cognitive     *float64 `json:"cognitive,omitempty"`
	Social        *float64 `json:"social,omitempty"`

	Seed    int64 `json:"seed,omitempty"`
	Workers int   `json:"workers,omitempty"`

	// CheckpointInterval is the number of seconds between periodic
	// checkpoints (0 = disabled).
	CheckpointInterval int `json:"checkpointInterval,omitempty"`
}

// Checkpoint is a saved optimization state that can be resumed later.
//
// Only the best solution found so far is saved, not the optimizer's internal
// population or velocities: population state is algorithm-specific, and
// reinitializing it on resume keeps the checkpoint format stable across
// algorithms. A resumed run starts a fresh population seeded with the stored
// best vector, so the best fitness can only improve, though the trajectory
// will diverge from an uninterrupted run.
type Checkpoint struct {
	JobID string `json:"jobId"`

	// BestVector and BestFitness describe the best solution found when the
	// checkpoint was written.
	BestVector  []float64 `json:"bestVector"`
	BestFitness float64   `json:"bestFitness"`

	// Iteration is the completed generation/iteration count at save time.
	Iteration int `json:"iteration"`

	Timestamp time.Time `json:"timestamp"`

	// Config is kept so resumed jobs can be validated for compatibility.
	Config JobConfig `json:"config"`
}

// CheckpointInfo is checkpoint metadata without the solution vector, for
// efficient listing.
type CheckpointInfo struct {
	JobID       string    `json:"jobId"`
	BestFitness float64   `json:"bestFitness"`
	Iteration   int       `json:"iteration"`
	Timestamp   time.Time `json:"timestamp"`
	Algorithm   string    `json:"algorithm"`
	Objective   string    `json:"objective"`
	Dimensions  int       `json:"dimensions"`
}

// NewCheckpoint builds a checkpoint from runtime job state.
func NewCheckpoint(jobID string, bestVector []float64, bestFitness float64, iteration int, config JobConfig) *Checkpoint {
	return &Checkpoint{
		JobID:       jobID,
		BestVector:  bestVector,
		BestFitness: bestFitness,
		Iteration:   iteration,
		Timestamp:   time.Now(),
		Config:      config,
	}
}

// ToInfo converts a full Checkpoint to its metadata.
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:       c.JobID,
		BestFitness: c.BestFitness,
		Iteration:   c.Iteration,
		Timestamp:   c.Timestamp,
		Algorithm:   c.Config.Algorithm,
		Objective:   c.Config.Objective,
		Dimensions:  c.Config.Dimensions,
	}
}

// Validate checks that the checkpoint carries everything a resume needs.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(c.BestVector) == 0 {
		return &ValidationError{Field: "BestVector", Reason: "cannot be empty"}
	}
	if c.Iteration < 0 {
		return &ValidationError{Field: "Iteration", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.Algorithm == "" {
		return &ValidationError{Field: "Config.Algorithm", Reason: "cannot be empty"}
	}
	if c.Config.Objective == "" {
		return &ValidationError{Field: "Config.Objective", Reason: "cannot be empty"}
	}
	if c.Config.Dimensions <= 0 {
		return &ValidationError{Field: "Config.Dimensions", Reason: "must be positive"}
	}
	if len(c.BestVector) != c.Config.Dimensions {
		return &ValidationError{
			Field:  "BestVector",
			Reason: fmt.Sprintf("length %d does not match %d dimensions", len(c.BestVector), c.Config.Dimensions),
		}
	}
	return nil
}

// ValidationError reports an invalid checkpoint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks that this checkpoint can be resumed under the given
// config: the search problem (algorithm, objective, dimensionality) must
// match; budgets and rates may change between runs.
func (c *Checkpoint) IsCompatible(config JobConfig) error {
	if c.Config.Algorithm != config.Algorithm {
		return &CompatibilityError{Field: "Algorithm", Expected: c.Config.Algorithm, Actual: config.Algorithm}
	}
	if c.Config.Objective != config.Objective {
		return &CompatibilityError{Field: "Objective", Expected: c.Config.Objective, Actual: config.Objective}
	}
	if c.Config.Dimensions != config.Dimensions {
		return &CompatibilityError{
			Field:    "Dimensions",
			Expected: fmt.Sprintf("%d", c.Config.Dimensions),
			Actual:   fmt.Sprintf("%d", config.Dimensions),
		}
	}
	return nil
}

// CompatibilityError reports a checkpoint/config mismatch on resume.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
