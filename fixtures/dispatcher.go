package fixtures

import (
	"context"

	"github.com/dogmatiq/procession/process"
)

// DispatcherStub is a test implementation of the process.Dispatcher
// interface.
type DispatcherStub struct {
	process.Dispatcher

	DispatchFunc func(context.Context, process.Command, process.DispatchOptions) error
}

// Dispatch sends a single command.
func (d *DispatcherStub) Dispatch(
	ctx context.Context,
	c process.Command,
	opts process.DispatchOptions,
) error {
	if d.DispatchFunc != nil {
		return d.DispatchFunc(ctx, c, opts)
	}

	if d.Dispatcher != nil {
		return d.Dispatcher.Dispatch(ctx, c, opts)
	}

	return nil
}
