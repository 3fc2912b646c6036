package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/passkeydir/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the enrichment
// state accumulated by previous steps.
type Step interface {
	// Do executes the pipeline step.
	// Returns an error only if the step fails critically; non-critical
	// failures leave their fields at default values and return nil.
	Do(ctx context.Context, e *model.Enrichment) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence. Cancellation is checked before each
// step; steps bound their own network calls.
//
// Returns the first step error; later steps do not run.
func (p *Pipeline) Execute(ctx context.Context, e *model.Enrichment) error {
	domain := e.Target.Raw()
	p.logger.Debug("starting pipeline",
		"domain", domain,
		"steps", p.StepNames(),
	)

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"domain", domain,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"domain", domain,
		)

		if err := step.Do(ctx, e); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"domain", domain,
				"error", err,
			)
			return err
		}

		e.PerformedSteps = append(e.PerformedSteps, step.Name())
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
