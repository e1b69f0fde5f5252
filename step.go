package sagakit

import "context"

// ActionFunc performs a step's forward work against the shared saga context.
// The returned map, if any, is merged into the context so later steps see
// the accumulated state.
type ActionFunc func(ctx context.Context, sc *Context) (map[string]any, error)

// CompensationFunc semantically undoes a previously completed step.
// It is invoked with the snapshot of the context taken when the step
// completed, not with the live context.
type CompensationFunc func(ctx context.Context, sc *Context) error

// NoOpCompensation is a CompensationFunc for steps with nothing to undo.
func NoOpCompensation(_ context.Context, _ *Context) error {
	return nil
}

// Step is a named pair of forward action and compensating action.
// Steps are immutable once added to an orchestrator.
type Step struct {
	Name         string
	Action       ActionFunc
	Compensation CompensationFunc
}

// compensationEntry is recorded only after a step's action succeeds.
// After N successful steps the orchestrator holds exactly N entries.
type compensationEntry struct {
	name         string
	compensation CompensationFunc
	snapshot     *Context
}
