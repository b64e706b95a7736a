package fixtures

import (
	"github.com/dogmatiq/procession/eventstream"
	"github.com/dogmatiq/procession/process"
)

// EventStub is an event payload used within tests.
type EventStub struct {
	Value string
}

// CommandStub is a command used within tests.
type CommandStub struct {
	Value string
}

// StateStub is a workflow state used within tests. It records the values of
// the events applied to the instance.
type StateStub struct {
	Values []string
}

// NewEvent returns a recorded event with the given ID and offset,
// containing an EventStub payload with the given value.
//
// The event's correlation ID is the placeholder "<correlation>".
func NewEvent(id string, offset eventstream.Offset, value string) eventstream.Event {
	return eventstream.Event{
		ID:            id,
		Offset:        offset,
		CorrelationID: "<correlation>",
		Message: EventStub{
			Value: value,
		},
	}
}

// AppendValue is an apply function for StateStub states: it returns a new
// state with the event's value appended.
//
// It can be used as the ApplyFunc of a DefinitionStub.
func AppendValue(s process.State, ev process.Message) process.State {
	prev := s.(*StateStub)

	next := &StateStub{
		Values: append(
			append([]string(nil), prev.Values...),
			ev.(EventStub).Value,
		),
	}

	return next
}
