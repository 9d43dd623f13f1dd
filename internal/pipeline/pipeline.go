// Package pipeline sequences the analysis steps. It is a stripped-down
// batch runner: steps execute synchronously in registration order and
// the first failure aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"rentstat/internal/cluster"
	"rentstat/internal/config"
	"rentstat/internal/dataset"
	"rentstat/internal/factor"
	"rentstat/internal/pca"
)

// State carries intermediate results between steps. Each step fills in
// its own slot and may read anything produced earlier.
type State struct {
	Config *config.Config

	Table        *dataset.Table
	Standardized *dataset.Standardized
	PCA          *pca.Result
	Factor       *factor.Result
	// ClusterInput is the score matrix handed to the clustering step.
	ClusterInput *mat.Dense
	Cluster      *cluster.Result
}

// Step is a single unit of the analysis pipeline.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() string
	// Name returns the human-readable name for this step.
	Name() string
	// Run executes the step against the shared state.
	Run(ctx context.Context, state *State) error
}

// Registry holds steps in registration order.
type Registry struct {
	steps []Step
	ids   map[string]bool
}

// NewRegistry creates an empty step registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]bool)}
}

// Register appends a step. Duplicate IDs are rejected.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}
	if r.ids[id] {
		return fmt.Errorf("step %s already registered", id)
	}
	r.ids[id] = true
	r.steps = append(r.steps, step)
	return nil
}

// Steps returns the registered steps in order.
func (r *Registry) Steps() []Step {
	return r.steps
}

// Runner executes registered steps sequentially.
type Runner struct {
	registry *Registry
	logger   *slog.Logger
}

// NewRunner creates a runner over the given registry.
func NewRunner(registry *Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: registry, logger: logger}
}

// Run executes every step in order, logging timings. The first error
// aborts the run and is returned wrapped with the step ID.
func (r *Runner) Run(ctx context.Context, state *State) error {
	start := time.Now()
	r.logger.InfoContext(ctx, "pipeline started", "steps", len(r.registry.Steps()))

	for _, step := range r.registry.Steps() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline cancelled before %s: %w", step.ID(), err)
		}

		stepStart := time.Now()
		r.logger.InfoContext(ctx, "step started", "step", step.ID(), "name", step.Name())

		if err := step.Run(ctx, state); err != nil {
			r.logger.ErrorContext(ctx, "step failed",
				"step", step.ID(),
				"duration", time.Since(stepStart).String(),
				"error", err,
			)
			return fmt.Errorf("step %s: %w", step.ID(), err)
		}

		r.logger.InfoContext(ctx, "step completed",
			"step", step.ID(),
			"duration", time.Since(stepStart).String(),
		)
	}

	r.logger.InfoContext(ctx, "pipeline completed", "duration", time.Since(start).String())
	return nil
}
