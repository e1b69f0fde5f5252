package sagakit

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/hoangthienclub/sagakit/set"
)

// FlowAction performs a step's forward work from the triggering event.
// The returned map is merged into the payload of the step's success event, so
// each event carries a progressively accumulated superset of the flow state.
type FlowAction func(ctx context.Context, event Event) (map[string]any, error)

// FlowCompensation undoes a step, given the failure event that triggered the
// rollback. Its payload is the accumulated state at the failure point.
type FlowCompensation func(ctx context.Context, event Event) error

// FlowStep declares one link of a choreographed saga chain: the event that
// triggers it, the events it publishes on success and failure, and the
// forward/compensating work.
type FlowStep struct {
	Name         string
	OnEvent      string
	SuccessEvent string
	FailureEvent string
	Action       FlowAction
	Compensation FlowCompensation
}

// Flow is a declarative, decentralized saga: a linear chain of steps wired
// together purely through event subscriptions, with no central driver at
// runtime. The compensations triggered by each step's failure event are fixed
// at registration time to exactly the steps that precede it in the chain, in
// reverse order — the choreography equivalent of the orchestrator's
// compensation stack.
type Flow struct {
	name    string
	logger  zerolog.Logger
	steps   []FlowStep
	ordered []FlowStep
}

// NewFlow creates an empty flow.
func NewFlow(name string, logger zerolog.Logger) *Flow {
	return &Flow{name: name, logger: logger}
}

// Step appends a step declaration and returns the flow for chaining.
func (f *Flow) Step(step FlowStep) *Flow {
	f.steps = append(f.steps, step)
	return f
}

// Entry returns the event type that starts the flow. Valid after Register.
func (f *Flow) Entry() string {
	if len(f.ordered) == 0 {
		return ""
	}
	return f.ordered[0].OnEvent
}

// Steps returns the validated steps in chain order. Valid after Register.
func (f *Flow) Steps() []FlowStep {
	return append([]FlowStep(nil), f.ordered...)
}

// Register validates the chain and subscribes every forward and compensation
// handler onto the bus. After Register returns, publishing the entry event
// drives the whole saga.
func (f *Flow) Register(bus *EventBus) error {
	ordered, err := f.resolveOrder()
	if err != nil {
		return err
	}
	f.ordered = ordered

	for i, step := range ordered {
		f.subscribeForward(bus, step)

		// The compensation set for this step's failure is every prior step,
		// undone last-completed-first. Fixed here, by construction of the
		// chain: choreography has no shared completed-step list to consult
		// at runtime.
		if i > 0 {
			f.subscribeCompensations(bus, step, ordered[:i])
		}
	}
	return nil
}

// resolveOrder checks the declared steps for well-formedness and returns them
// in chain order. The success-event → trigger-event links form a directed
// graph; a stabilized topological sort fixes the order and rejects cycles,
// and the sorted sequence must be one unbroken chain.
func (f *Flow) resolveOrder() ([]FlowStep, error) {
	if len(f.steps) == 0 {
		return nil, Errorf(KindValidation, "flow %s has no steps", f.name)
	}

	names := &set.Set[string]{}
	events := &set.Set[string]{}
	for _, step := range f.steps {
		if step.Name == "" || step.OnEvent == "" || step.SuccessEvent == "" || step.FailureEvent == "" {
			return nil, Errorf(KindValidation, "flow %s: step %q must declare name, trigger, success and failure events", f.name, step.Name)
		}
		if step.Action == nil {
			return nil, Errorf(KindValidation, "flow %s: step %q has no action", f.name, step.Name)
		}
		if names.Contains(step.Name) {
			return nil, Errorf(KindValidation, "flow %s: duplicate step name %q", f.name, step.Name)
		}
		names.Insert(step.Name)
		for _, event := range []string{step.SuccessEvent, step.FailureEvent} {
			if events.Contains(event) {
				return nil, Errorf(KindValidation, "flow %s: event %q published by more than one step", f.name, event)
			}
			events.Insert(event)
		}
	}

	g := simple.NewDirectedGraph()
	for i := range f.steps {
		g.AddNode(simple.Node(i))
	}
	for i, producer := range f.steps {
		for j, consumer := range f.steps {
			if i != j && producer.SuccessEvent == consumer.OnEvent {
				g.SetEdge(g.NewEdge(simple.Node(int64(i)), simple.Node(int64(j))))
			}
		}
	}

	sorted, err := topo.SortStabilized(g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		return nil, WrapError(KindValidation, fmt.Sprintf("flow %s: step chain has a cycle", f.name), err)
	}

	ordered := make([]FlowStep, len(sorted))
	for i, node := range sorted {
		ordered[i] = f.steps[node.ID()]
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].OnEvent != ordered[i-1].SuccessEvent {
			return nil, Errorf(KindValidation, "flow %s: step %q is not triggered by the previous step's success event", f.name, ordered[i].Name)
		}
	}
	return ordered, nil
}

// subscribeForward wires a step's forward handler: run the action on the
// trigger event, then publish success with the accumulated payload, or the
// step's declared failure event with the payload plus the error message.
// Action failure is part of the saga protocol, so the handler reports nil to
// the bus; the bus-level derived "_FAILED" stays as a backstop for handlers
// outside the flow.
func (f *Flow) subscribeForward(bus *EventBus, step FlowStep) {
	bus.Subscribe(step.OnEvent, func(ctx context.Context, event Event) error {
		output, err := step.Action(ctx, event)
		if err != nil {
			f.logger.Warn().
				Str("flow", f.name).
				Str("step", step.Name).
				Err(err).
				Msg("flow step failed")

			failure := copyData(event.Data)
			failure["error"] = err.Error()
			bus.Publish(ctx, step.FailureEvent, failure)
			return nil
		}

		next := copyData(event.Data)
		for k, v := range output {
			next[k] = v
		}
		bus.Publish(ctx, step.SuccessEvent, next)
		return nil
	}, step.Name)
}

// subscribeCompensations wires the rollback for a step's failure event:
// the compensations of every step completed before it, in reverse order,
// each attempted exactly once, errors logged and skipped.
func (f *Flow) subscribeCompensations(bus *EventBus, failing FlowStep, completed []FlowStep) {
	bus.Subscribe(failing.FailureEvent, func(ctx context.Context, event Event) error {
		for i := len(completed) - 1; i >= 0; i-- {
			step := completed[i]
			if step.Compensation == nil {
				continue
			}
			f.logger.Debug().
				Str("flow", f.name).
				Str("step", step.Name).
				Str("failed_step", failing.Name).
				Msg("compensating flow step")

			if err := step.Compensation(ctx, event); err != nil {
				f.logger.Error().
					Str("flow", f.name).
					Str("step", step.Name).
					Err(err).
					Msg("flow compensation failed")
			}
		}
		return nil
	}, f.name+"-compensation")
}
