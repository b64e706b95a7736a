package process

// Message is an application-defined unit of information, such as an event
// payload or a command.
type Message interface{}

// State is an application-defined value holding the private state of a
// workflow instance.
type State interface{}

// Command is an application-defined message produced by a workflow for
// dispatch to the command-side of the application.
type Command interface{}

// Definition is an interface for the application-specific logic of a
// workflow.
//
// A single definition is shared by every instance of the workflow it
// describes. The engine treats a definition as stateless; all per-instance
// state is carried in the State values it returns.
type Definition interface {
	// New returns the state of a workflow instance before any event has
	// been applied to it.
	New() State

	// Handle returns the commands caused by ev, in the order they must be
	// dispatched. The returned slice may be empty.
	//
	// It must not mutate s. It is invoked at-least-once per event;
	// implementations must derive commands from s and ev alone.
	//
	// Returning an error routes the failure to HandleFailure(). Returning a
	// *StopError ends the workflow instance with the error it carries.
	// Handle() may panic; a panic is recovered and treated as if the
	// recovered value had been returned as an error.
	Handle(s State, ev Message) ([]Command, error)

	// Apply returns the state produced by applying ev to s. It must not
	// mutate s.
	Apply(s State, ev Message) State

	// HandleFailure returns a directive telling the workflow instance how
	// to proceed after a failure.
	//
	// cause is the error that occurred. subject is the event payload if
	// Handle() failed, or the command if dispatch failed. The set of
	// directives that are meaningful depends on which of the two occurred;
	// see the documentation of each directive type.
	HandleFailure(cause error, subject Message, fc FailureContext) Directive
}
