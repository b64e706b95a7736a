package eventstream

// Offset is the position of an event on a workflow's event stream.
//
// Offsets are strictly increasing along a single stream, but are not
// required to be contiguous.
type Offset uint64

// Event is an event that has been recorded against a workflow, as delivered
// to a workflow instance.
type Event struct {
	// ID uniquely identifies the event.
	ID string

	// Offset is the position of the event on the workflow's event stream.
	Offset Offset

	// CorrelationID identifies the workflow activity that the event belongs
	// to. It is propagated to any commands produced in reaction to the
	// event.
	CorrelationID string

	// Message is the application-defined event payload.
	Message interface{}
}
