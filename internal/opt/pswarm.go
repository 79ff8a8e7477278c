package opt

import (
	"context"
	"math"

	"github.com/cwbudde/bioopt/internal/objective"
	"github.com/cwbudde/bioopt/internal/rng"
)

// SwarmConfig configures the particle swarm optimizer.
type SwarmConfig struct {
	Dimensions int // >= 1
	Particles  int // >= 2
	Iterations int // >= 0

	Inertia   float64 // velocity momentum weight
	Cognitive float64 // pull toward a particle's personal best
	Social    float64 // pull toward the swarm's global best

	// PosMin/PosMax bound particle position initialization;
	// VelMin/VelMax bound velocity initialization.
	PosMin, PosMax float64
	VelMin, VelMax float64

	// ClampPosition/ClampVelocity re-apply the initialization bounds after
	// every update step. Both are off by default: the reference behavior
	// leaves velocity and position unbounded.
	ClampPosition bool
	ClampVelocity bool

	// InitialBest, when set, seeds the first particle's position
	// (used when resuming from a checkpoint).
	InitialBest []float64

	// Seed drives the deterministic random source; ignored when Rand is set.
	Seed int64
	Rand rng.Source

	// Workers > 1 enables parallel fitness evaluation.
	Workers int

	// MaxEvaluations, when > 0, stops the run cooperatively once the next
	// iteration would exceed the objective-call budget.
	MaxEvaluations int

	// Progress, when set, is called after each iteration's evaluation from
	// the orchestrating goroutine.
	Progress func(IterationStats)
}

// DefaultSwarmConfig returns the canonical configuration for the given
// dimensionality.
func DefaultSwarmConfig(dims int) SwarmConfig {
	return SwarmConfig{
		Dimensions: dims,
		Particles:  30,
		Iterations: 100,
		Inertia:    0.7,
		Cognitive:  1.5,
		Social:     1.5,
		PosMin:     -5,
		PosMax:     5,
		VelMin:     -1,
		VelMax:     1,
	}
}

func (c SwarmConfig) validate() error {
	if c.Dimensions < 1 {
		return &ConfigError{Field: "dimensions", Reason: "must be >= 1"}
	}
	if c.Particles < 2 {
		return &ConfigError{Field: "particles", Reason: "must be >= 2"}
	}
	if c.Iterations < 0 {
		return &ConfigError{Field: "iterations", Reason: "must be >= 0"}
	}
	if c.PosMax <= c.PosMin {
		return &ConfigError{Field: "posMax", Reason: "must be greater than posMin"}
	}
	if c.VelMax <= c.VelMin {
		return &ConfigError{Field: "velMax", Reason: "must be greater than velMin"}
	}
	if c.InitialBest != nil && len(c.InitialBest) != c.Dimensions {
		return &ConfigError{Field: "initialBest", Reason: "length must equal dimensions"}
	}
	return nil
}

// Swarm moves a set of position/velocity particles toward the fitness
// optimum using inertia, cognitive, and social velocity terms. Each particle
// remembers its personal best; the swarm shares one global best.
type Swarm struct {
	cfg SwarmConfig
}

// NewSwarm validates the configuration and returns the optimizer.
// Configurations are taken literally; start from DefaultSwarmConfig for the
// documented defaults.
func NewSwarm(cfg SwarmConfig) (*Swarm, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Swarm{cfg: cfg}, nil
}

func (s *Swarm) Name() string { return "pso" }

type swarmState struct {
	particles []Particle
	gbest     []float64
	gbestFit  float64
}

// Run executes the full optimization. Each iteration evaluates every
// particle's position in index order, folds personal and global bests in the
// same order, then updates all velocities and positions. The final positions
// are evaluated too, so a run always reports a real best even at zero
// iterations. Only the orchestrating goroutine mutates swarm state; workers
// compute fitness only.
func (s *Swarm) Run(ctx context.Context, fn objective.Func) (*Result, error) {
	cfg := s.cfg
	src := cfg.Rand
	if src == nil {
		src = rng.New(cfg.Seed)
	}

	st := s.initSwarm(src)
	positions := make([][]float64, len(st.particles))
	for i := range st.particles {
		positions[i] = st.particles[i].Position
	}
	fits := make([]float64, len(st.particles))

	res := &Result{BestFitness: math.Inf(-1)}

	for iter := 0; ; iter++ {
		select {
		case <-ctx.Done():
			s.finish(res, st, fits)
			return res, ctx.Err()
		default:
		}

		if err := evaluate(ctx, fn, positions, fits, cfg.Workers); err != nil {
			return nil, err
		}
		res.Evaluations += len(st.particles)

		for i := range st.particles {
			p := &st.particles[i]
			if fits[i] > p.BestFitness {
				p.BestFitness = fits[i]
				copy(p.BestPosition, p.Position)
			}
			if fits[i] > st.gbestFit {
				st.gbestFit = fits[i]
				copy(st.gbest, p.Position)
			}
		}

		stats := IterationStats{Iteration: iter, BestFitness: st.gbestFit, MeanFitness: mean(fits)}
		res.History = append(res.History, stats)
		if cfg.Progress != nil {
			stats.BestVector = cloneVector(st.gbest)
			cfg.Progress(stats)
		}

		if iter >= cfg.Iterations {
			break
		}
		if cfg.MaxEvaluations > 0 && res.Evaluations+len(st.particles) > cfg.MaxEvaluations {
			break
		}
		res.Iterations = iter + 1

		s.move(src, st)
	}

	s.finish(res, st, fits)
	return res, nil
}

// initSwarm draws particle positions and velocities uniformly from the
// configured ranges; personal bests start at "no best yet".
func (s *Swarm) initSwarm(src rng.Source) *swarmState {
	cfg := s.cfg
	st := &swarmState{
		particles: make([]Particle, cfg.Particles),
		gbest:     make([]float64, cfg.Dimensions),
		gbestFit:  math.Inf(-1),
	}
	for i := range st.particles {
		pos := make([]float64, cfg.Dimensions)
		vel := make([]float64, cfg.Dimensions)
		for d := range pos {
			pos[d] = uniform(src, cfg.PosMin, cfg.PosMax)
			vel[d] = uniform(src, cfg.VelMin, cfg.VelMax)
		}
		st.particles[i] = Particle{
			Position:     pos,
			Velocity:     vel,
			BestPosition: cloneVector(pos),
			BestFitness:  math.Inf(-1),
		}
	}
	if cfg.InitialBest != nil {
		copy(st.particles[0].Position, cfg.InitialBest)
		copy(st.particles[0].BestPosition, cfg.InitialBest)
	}
	return st
}

// move applies the velocity and position update to every particle:
// v = w*v + c1*r1*(pbest-x) + c2*r2*(gbest-x), x += v, with r1 and r2 drawn
// independently per dimension.
func (s *Swarm) move(src rng.Source, st *swarmState) {
	cfg := s.cfg
	for i := range st.particles {
		p := &st.particles[i]
		for d := range p.Position {
			r1 := src.Float64()
			r2 := src.Float64()
			p.Velocity[d] = cfg.Inertia*p.Velocity[d] +
				cfg.Cognitive*r1*(p.BestPosition[d]-p.Position[d]) +
				cfg.Social*r2*(st.gbest[d]-p.Position[d])
			if cfg.ClampVelocity {
				p.Velocity[d] = clamp(p.Velocity[d], cfg.VelMin, cfg.VelMax)
			}
			p.Position[d] += p.Velocity[d]
			if cfg.ClampPosition {
				p.Position[d] = clamp(p.Position[d], cfg.PosMin, cfg.PosMax)
			}
		}
	}
}

func (s *Swarm) finish(res *Result, st *swarmState, fits []float64) {
	if !math.IsInf(st.gbestFit, -1) {
		res.BestVector = cloneVector(st.gbest)
		res.BestFitness = st.gbestFit
	}
	res.Final = make([]Candidate, len(st.particles))
	res.Swarm = make([]Particle, len(st.particles))
	for i := range st.particles {
		p := st.particles[i]
		res.Final[i] = Candidate{Vector: cloneVector(p.Position), Fitness: fits[i]}
		res.Swarm[i] = Particle{
			Position:     cloneVector(p.Position),
			Velocity:     cloneVector(p.Velocity),
			BestPosition: cloneVector(p.BestPosition),
			BestFitness:  p.BestFitness,
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
