package sagakit

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainStep declares a trivially-named flow step that records its forward and
// undo invocations.
func chainStep(calls *[]string, name, onEvent string, fail bool) FlowStep {
	return FlowStep{
		Name:         name,
		OnEvent:      onEvent,
		SuccessEvent: name + "_DONE",
		FailureEvent: name + "_FAILED",
		Action: func(_ context.Context, _ Event) (map[string]any, error) {
			if fail {
				return nil, fmt.Errorf("%s broke", name)
			}
			*calls = append(*calls, "do:"+name)
			return map[string]any{name: true}, nil
		},
		Compensation: func(_ context.Context, _ Event) error {
			*calls = append(*calls, "undo:"+name)
			return nil
		},
	}
}

func TestFlowRegisterRejectsEmptyFlow(t *testing.T) {
	flow := NewFlow("empty", zerolog.Nop())

	err := flow.Register(NewEventBus(zerolog.Nop()))

	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestFlowRegisterRejectsDuplicateStepNames(t *testing.T) {
	var calls []string
	flow := NewFlow("dup", zerolog.Nop()).
		Step(chainStep(&calls, "a", "START", false)).
		Step(chainStep(&calls, "a", "a_DONE", false))

	err := flow.Register(NewEventBus(zerolog.Nop()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate step name")
}

func TestFlowRegisterRejectsBrokenChain(t *testing.T) {
	var calls []string
	flow := NewFlow("broken", zerolog.Nop()).
		Step(chainStep(&calls, "a", "START", false)).
		Step(chainStep(&calls, "b", "SOMETHING_ELSE", false))

	err := flow.Register(NewEventBus(zerolog.Nop()))

	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestFlowRegisterRejectsCycle(t *testing.T) {
	flow := NewFlow("cycle", zerolog.Nop()).
		Step(FlowStep{
			Name: "a", OnEvent: "b_DONE", SuccessEvent: "a_DONE", FailureEvent: "a_FAILED",
			Action: func(_ context.Context, _ Event) (map[string]any, error) { return nil, nil },
		}).
		Step(FlowStep{
			Name: "b", OnEvent: "a_DONE", SuccessEvent: "b_DONE", FailureEvent: "b_FAILED",
			Action: func(_ context.Context, _ Event) (map[string]any, error) { return nil, nil },
		})

	err := flow.Register(NewEventBus(zerolog.Nop()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestFlowOrdersStepsByChainNotDeclaration(t *testing.T) {
	var calls []string
	// Declared out of order; the success-event links determine the chain.
	flow := NewFlow("reordered", zerolog.Nop()).
		Step(chainStep(&calls, "second", "first_DONE", false)).
		Step(chainStep(&calls, "first", "START", false))

	bus := NewEventBus(zerolog.Nop())
	require.NoError(t, flow.Register(bus))

	assert.Equal(t, "START", flow.Entry())
	steps := flow.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "first", steps[0].Name)
	assert.Equal(t, "second", steps[1].Name)
}

func TestFlowForwardRunAccumulatesPayload(t *testing.T) {
	var calls []string
	flow := NewFlow("forward", zerolog.Nop()).
		Step(chainStep(&calls, "a", "START", false)).
		Step(chainStep(&calls, "b", "a_DONE", false)).
		Step(chainStep(&calls, "c", "b_DONE", false))

	bus := NewEventBus(zerolog.Nop())
	require.NoError(t, flow.Register(bus))

	bus.Publish(context.Background(), "START", map[string]any{"seed": "s"})

	assert.Equal(t, []string{"do:a", "do:b", "do:c"}, calls)
	assert.Equal(t, []string{"START", "a_DONE", "b_DONE", "c_DONE"}, bus.EventTypes())

	// The terminal event's payload is the superset of the seed and every
	// step's output.
	history := bus.History()
	final := history[len(history)-1]
	assert.Equal(t, "s", final.Data["seed"])
	assert.Equal(t, true, final.Data["a"])
	assert.Equal(t, true, final.Data["b"])
	assert.Equal(t, true, final.Data["c"])
}

func TestFlowFailureCompensatesPriorStepsInReverse(t *testing.T) {
	var calls []string
	flow := NewFlow("rollback", zerolog.Nop()).
		Step(chainStep(&calls, "a", "START", false)).
		Step(chainStep(&calls, "b", "a_DONE", false)).
		Step(chainStep(&calls, "c", "b_DONE", true)).
		Step(chainStep(&calls, "d", "c_DONE", false))

	bus := NewEventBus(zerolog.Nop())
	require.NoError(t, flow.Register(bus))

	bus.Publish(context.Background(), "START", nil)

	// c fails: b then a are undone, d never runs, and c itself is never
	// compensated.
	assert.Equal(t, []string{"do:a", "do:b", "undo:b", "undo:a"}, calls)
	assert.Equal(t, []string{"START", "a_DONE", "b_DONE", "c_FAILED"}, bus.EventTypes())
}

func TestFlowFirstStepFailureCompensatesNothing(t *testing.T) {
	var calls []string
	flow := NewFlow("nothing", zerolog.Nop()).
		Step(chainStep(&calls, "a", "START", true)).
		Step(chainStep(&calls, "b", "a_DONE", false))

	bus := NewEventBus(zerolog.Nop())
	require.NoError(t, flow.Register(bus))

	bus.Publish(context.Background(), "START", nil)

	assert.Empty(t, calls)
	assert.Equal(t, []string{"START", "a_FAILED"}, bus.EventTypes())
}

func TestFlowFailureEventCarriesErrorMessage(t *testing.T) {
	var calls []string
	flow := NewFlow("message", zerolog.Nop()).
		Step(chainStep(&calls, "a", "START", false)).
		Step(chainStep(&calls, "b", "a_DONE", true))

	bus := NewEventBus(zerolog.Nop())
	require.NoError(t, flow.Register(bus))

	bus.Publish(context.Background(), "START", map[string]any{"seed": 1})

	history := bus.History()
	final := history[len(history)-1]
	require.Equal(t, "b_FAILED", final.Type)
	assert.Equal(t, "b broke", final.Data["error"])
	// The failure payload still carries the accumulated state, which is what
	// the compensations read.
	assert.Equal(t, true, final.Data["a"])
	assert.Equal(t, 1, final.Data["seed"])
}
