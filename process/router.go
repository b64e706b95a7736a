package process

import (
	"context"

	"github.com/dogmatiq/procession/eventstream"
)

// Router is the interface via which a workflow instance reports its
// progress to whatever component is delivering events to it.
type Router interface {
	// AckEvent acknowledges that inst has finished with ev, either by
	// handling it to completion or by deliberately skipping it. The router
	// must not deliver the next event for an instance until the previous
	// one has been acknowledged.
	AckEvent(ctx context.Context, inst *Instance, ev eventstream.Event) error
}

// Dispatcher routes commands produced by workflow instances to the
// command-side of the application.
//
// Dispatchers must tolerate at-least-once delivery of commands. An instance
// persists its snapshot only after every command for an event has been
// accepted; if it crashes before the snapshot is persisted, the event is
// replayed and its commands are dispatched again.
type Dispatcher interface {
	// Dispatch sends a single command, carrying the correlation meta-data
	// in opts. A nil return value indicates the command was accepted.
	Dispatch(ctx context.Context, c Command, opts DispatchOptions) error
}

// DispatchOptions is the correlation meta-data attached to a dispatched
// command.
type DispatchOptions struct {
	// CausationID is the ID of the event that caused the command.
	CausationID string

	// CorrelationID is the correlation ID of the event that caused the
	// command.
	CorrelationID string
}
