package process

import (
	"fmt"

	"github.com/dogmatiq/procession/eventstream"
)

// FailureContext describes the progress a workflow instance had made
// through an event when a failure occurred. It is passed to
// Definition.HandleFailure().
type FailureContext struct {
	// PendingCommands are the commands that had not yet been dispatched
	// when the failure occurred, excluding the failed command itself. It is
	// empty for handler failures.
	PendingCommands []Command

	// State is the workflow state.
	//
	// For dispatch failures this is a preview of the state as it will be
	// once the event is applied: the instance's real state is not mutated
	// until every command for the event has been dispatched. For handler
	// failures it is the instance's current state, to which the event has
	// not been applied.
	State State

	// Event is the event being handled.
	Event eventstream.Event

	// Context is a developer-owned value threaded verbatim through
	// successive HandleFailure() calls for the same event. It is empty when
	// the first failure for an event occurs, and is replaced by the context
	// carried on Retry, RetryAfter and Continue directives. The engine
	// never inspects it.
	Context map[string]interface{}
}

// StopError is an error returned by Definition.Handle() to indicate that
// the workflow has ended and its instance must stop.
type StopError struct {
	// Reason describes why the workflow ended. It may be nil.
	Reason error
}

func (e *StopError) Error() string {
	if e.Reason == nil {
		return "workflow stopped"
	}

	return fmt.Sprintf("workflow stopped: %s", e.Reason)
}

// Unwrap returns the reason the workflow ended.
func (e *StopError) Unwrap() error {
	return e.Reason
}
