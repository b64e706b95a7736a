package fixtures

import "github.com/dogmatiq/procession/process"

// DefinitionStub is a test implementation of the process.Definition
// interface.
type DefinitionStub struct {
	process.Definition

	NewFunc           func() process.State
	HandleFunc        func(process.State, process.Message) ([]process.Command, error)
	ApplyFunc         func(process.State, process.Message) process.State
	HandleFailureFunc func(error, process.Message, process.FailureContext) process.Directive
}

// New returns the state of a workflow instance before any event has been
// applied to it.
func (d *DefinitionStub) New() process.State {
	if d.NewFunc != nil {
		return d.NewFunc()
	}

	if d.Definition != nil {
		return d.Definition.New()
	}

	return &StateStub{}
}

// Handle returns the commands caused by ev.
func (d *DefinitionStub) Handle(
	s process.State,
	ev process.Message,
) ([]process.Command, error) {
	if d.HandleFunc != nil {
		return d.HandleFunc(s, ev)
	}

	if d.Definition != nil {
		return d.Definition.Handle(s, ev)
	}

	return nil, nil
}

// Apply returns the state produced by applying ev to s.
func (d *DefinitionStub) Apply(
	s process.State,
	ev process.Message,
) process.State {
	if d.ApplyFunc != nil {
		return d.ApplyFunc(s, ev)
	}

	if d.Definition != nil {
		return d.Definition.Apply(s, ev)
	}

	return s
}

// HandleFailure returns a directive telling the workflow instance how to
// proceed after a failure.
func (d *DefinitionStub) HandleFailure(
	cause error,
	subject process.Message,
	fc process.FailureContext,
) process.Directive {
	if d.HandleFailureFunc != nil {
		return d.HandleFailureFunc(cause, subject, fc)
	}

	if d.Definition != nil {
		return d.Definition.HandleFailure(cause, subject, fc)
	}

	return nil
}
