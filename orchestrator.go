package sagakit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Orchestrator drives an ordered sequence of reversible steps to completion
// or full rollback. Steps run strictly sequentially against one shared
// Context; when a step fails, compensations for every previously completed
// step run in reverse order, best-effort.
//
// An Orchestrator is reusable: Execute resets its bookkeeping, so successive
// runs (with distinct contexts) are fully independent. It is not safe for
// concurrent Execute calls on the same instance.
type Orchestrator struct {
	name    string
	logger  zerolog.Logger
	journal Journal
	steps   []Step
	entries []compensationEntry
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithJournal records execution progress into the given journal.
func WithJournal(journal Journal) Option {
	return func(o *Orchestrator) { o.journal = journal }
}

// New creates an Orchestrator with no steps.
func New(name string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		name:   name,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AddStep appends a step and returns the orchestrator for chaining.
// An empty name defaults to "step-N". A nil compensation is treated as
// having nothing to undo.
func (o *Orchestrator) AddStep(name string, action ActionFunc, compensation CompensationFunc) *Orchestrator {
	if name == "" {
		name = fmt.Sprintf("step-%d", len(o.steps)+1)
	}
	if compensation == nil {
		compensation = NoOpCompensation
	}
	o.steps = append(o.steps, Step{Name: name, Action: action, Compensation: compensation})
	return o
}

// Result is the terminal outcome of one Execute call.
type Result struct {
	// Success is true when every step completed.
	Success bool

	// Err is the failing step's error, verbatim. Nil on success.
	Err error

	// FailedStep names the step whose action failed, if any.
	FailedStep string

	// Context is the shared context with all accumulated state.
	Context *Context

	// RunID identifies this execution in the journal.
	RunID string
}

// Execute runs the steps in insertion order against sc, mutating it in place.
// On the first step failure it stops, compensates every completed step in
// reverse order, and reports the failure; no failure here is fatal to the
// caller. A nil sc starts from an empty Context.
func (o *Orchestrator) Execute(ctx context.Context, sc *Context) *Result {
	if sc == nil {
		sc = NewContext()
	}

	// Fresh bookkeeping per run so the instance can be reused.
	o.entries = o.entries[:0]

	runID := uuid.NewString()
	record := SagaRecord{
		ID:        runID,
		Name:      o.name,
		Status:    StatusRunning,
		CreatedAt: time.Now(),
	}
	o.record(ctx, &record)

	o.logger.Info().Str("saga", o.name).Str("run_id", runID).Int("steps", len(o.steps)).Msg("saga started")

	for _, step := range o.steps {
		startedAt := time.Now()
		o.logger.Debug().Str("saga", o.name).Str("step", step.Name).Msg("executing step")

		output, err := step.Action(ctx, sc)
		endedAt := time.Now()

		if err != nil {
			o.logger.Warn().Str("saga", o.name).Str("step", step.Name).Err(err).Msg("step failed, rolling back")
			record.Steps = append(record.Steps, StepRecord{
				Name:      step.Name,
				State:     StepStateFailed,
				Error:     err.Error(),
				StartedAt: startedAt,
				EndedAt:   endedAt,
			})
			record.Status = StatusCompensating
			o.record(ctx, &record)

			o.compensate(ctx, &record)

			record.Status = StatusCompensated
			o.record(ctx, &record)

			return &Result{
				Success:    false,
				Err:        err,
				FailedStep: step.Name,
				Context:    sc,
				RunID:      runID,
			}
		}

		if output != nil {
			sc.Merge(output)
		}

		// The entry is recorded only now that the action has succeeded: a
		// failing step contributes no compensation entry for itself. The
		// snapshot includes the step's own merged output, so its compensation
		// can find the identifiers it needs to undo the work.
		o.entries = append(o.entries, compensationEntry{
			name:         step.Name,
			compensation: step.Compensation,
			snapshot:     sc.Snapshot(),
		})

		record.Steps = append(record.Steps, StepRecord{
			Name:      step.Name,
			State:     StepStateCompleted,
			StartedAt: startedAt,
			EndedAt:   endedAt,
		})
		o.record(ctx, &record)

		o.logger.Debug().Str("saga", o.name).Str("step", step.Name).Msg("step completed")
	}

	// Entries are discarded once the saga succeeds.
	o.entries = o.entries[:0]

	record.Status = StatusSucceeded
	o.record(ctx, &record)

	o.logger.Info().Str("saga", o.name).Str("run_id", runID).Msg("saga completed")

	return &Result{Success: true, Context: sc, RunID: runID}
}

// compensate undoes completed steps in reverse (LIFO) order. Every entry gets
// exactly one attempt; an undo error is logged and skipped, never aggregated
// into the saga result.
func (o *Orchestrator) compensate(ctx context.Context, record *SagaRecord) {
	for i := len(o.entries) - 1; i >= 0; i-- {
		entry := o.entries[i]
		o.logger.Debug().Str("saga", o.name).Str("step", entry.name).Msg("compensating step")

		state := StepStateUndone
		errText := ""
		if err := entry.compensation(ctx, entry.snapshot); err != nil {
			o.logger.Error().Str("saga", o.name).Str("step", entry.name).Err(err).Msg("compensation failed")
			state = StepStateUndoError
			errText = err.Error()
		}
		record.Steps = append(record.Steps, StepRecord{
			Name:  entry.name,
			State: state,
			Error: errText,
		})
		o.record(ctx, record)
	}
	o.entries = o.entries[:0]
}

func (o *Orchestrator) record(ctx context.Context, record *SagaRecord) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Record(ctx, *record); err != nil {
		o.logger.Error().Str("saga", o.name).Err(err).Msg("journal write failed")
	}
}
