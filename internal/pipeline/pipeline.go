package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/secregistry/internal/model"
)

// ErrNoRecord is returned by Process when the steps ran without building
// a record.
var ErrNoRecord = errors.New("no company record built")

// Fetcher fetches a page as a parsed document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Job is the unit of work passed through the steps.
type Job struct {
	// Link is the listing entry of the company.
	Link model.CompanyLink

	// Record is the record built so far. It is nil until the company
	// page has been parsed.
	Record *model.CompanyRecord

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string
}

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Do executes the step on the job.
	// Non-critical failures are logged and Do returns nil.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError keeps executing steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The first error is still returned.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
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

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps on job in sequence.
// The context is checked before each step.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	var firstErr error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"company", job.Link.Name,
				"reason", err,
			)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"company", job.Link.Name,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"company", job.Link.Name,
				"error", err,
			)
			if !p.continueOnError {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		job.PerformedSteps = append(job.PerformedSteps, step.Name())
	}
	return firstErr
}

// Process runs the pipeline for one company and returns its record.
func (p *Pipeline) Process(ctx context.Context, link model.CompanyLink) (*model.CompanyRecord, error) {
	job := &Job{Link: link}
	if err := p.Execute(ctx, job); err != nil {
		return nil, err
	}
	if job.Record == nil {
		return nil, ErrNoRecord
	}
	return job.Record, nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
