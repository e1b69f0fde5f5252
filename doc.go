// Package sagakit implements the saga pattern for in-process coordination of
// multi-step business transactions, in two equivalent styles.
//
// Sagas break a distributed transaction into a sequence of local steps, each
// paired with a compensating action that semantically undoes it. When any
// step fails, the steps that already completed are compensated in reverse
// order instead of holding locks across services. For background, see Caitie
// McCaffrey's 2017 JOTB talk: https://www.youtube.com/watch?v=0UTOLRTwOX0
//
// # Orchestration
//
// An Orchestrator owns the step list and drives it centrally:
//
//  1. Build an Orchestrator with New and chain AddStep calls, each naming a
//     step and supplying its action and compensation.
//  2. Call Execute with a Context carrying the initial state. Each step's
//     output is merged into the shared Context, so later steps see the
//     accumulated state.
//  3. On the first failure, every completed step is compensated last-first
//     with the context snapshot recorded when it completed, and the Result
//     reports the failing step's error verbatim.
//
// # Choreography
//
// A Flow achieves the same semantics with no central driver: each step
// subscribes to the previous step's success event on an EventBus, performs
// its work, and publishes its own success or failure event. Compensations are
// subscriptions on the failure events; the set of steps each one undoes is
// fixed when the Flow is registered, derived from the step's position in the
// chain. Publishing the entry event drives the whole saga, and Publish
// returns only after the full cascade has settled.
//
// The bus, the orchestrator and the flow are in-memory coordination
// primitives: saga state does not survive the process, and carrying events
// over a real broker (with a correlation-ID/reply-topic scheme to replace the
// bus's await-all-handlers semantics) is left to transport adapters outside
// this package.
package sagakit
