package process

import "time"

// Directive is a value returned by Definition.HandleFailure() that
// instructs a workflow instance how to proceed after a failure.
//
// Retry, RetryAfter and Stop are meaningful for both handler and dispatch
// failures. Skip is meaningful only for handler failures.
// SkipDiscardPending, SkipContinuePending and Continue are meaningful only
// for dispatch failures.
//
// A directive that is not meaningful for the failure being handled is
// invalid. An invalid directive is logged and treated as a Stop directive
// carrying the original failure.
type Directive interface {
	isDirective()
}

// Retry is a directive that re-runs the failed operation.
//
// After a handler failure the event is passed to Definition.Handle() again.
// After a dispatch failure the failed command is dispatched again, followed
// by the commands that were still pending.
//
// Retries are unbounded; a definition that needs a retry ceiling must count
// attempts in the failure context it threads through Context.
type Retry struct {
	// Context replaces the developer-owned context passed to the next
	// HandleFailure() call for this event.
	Context map[string]interface{}
}

// RetryAfter is a directive that behaves as Retry does, after first
// blocking the instance for the given delay. No other events are handled
// while the instance is waiting.
type RetryAfter struct {
	// Delay is how long the instance waits before retrying.
	Delay time.Duration

	// Context replaces the developer-owned context passed to the next
	// HandleFailure() call for this event.
	Context map[string]interface{}
}

// Skip is a directive that abandons an event that could not be handled. The
// event is acknowledged without being applied to the workflow state, and
// without advancing the instance's last-seen offset.
type Skip struct{}

// SkipDiscardPending is a directive that abandons the failed command and
// every command still pending, then treats the event's dispatch as
// successful: the event is applied to the workflow state, a snapshot is
// persisted and the event is acknowledged.
type SkipDiscardPending struct{}

// SkipContinuePending is a directive that abandons the failed command only.
// Dispatch continues with the commands that were still pending.
type SkipContinuePending struct{}

// Continue is a directive that restarts dispatch with a substitute command
// list, abandoning both the failed command and any still pending.
type Continue struct {
	// Commands are dispatched in order, in place of the failed and pending
	// commands. It may be empty.
	Commands []Command

	// Context replaces the developer-owned context passed to the next
	// HandleFailure() call for this event.
	Context map[string]interface{}
}

// Stop is a directive that terminates the workflow instance.
//
// The event being handled is not applied or acknowledged, and the
// instance's persisted snapshot is left intact.
type Stop struct {
	// Reason describes why the instance was stopped.
	Reason error
}

func (Retry) isDirective()               {}
func (RetryAfter) isDirective()          {}
func (Skip) isDirective()                {}
func (SkipDiscardPending) isDirective()  {}
func (SkipContinuePending) isDirective() {}
func (Continue) isDirective()            {}
func (Stop) isDirective()                {}
