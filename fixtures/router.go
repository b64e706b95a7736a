package fixtures

import (
	"context"

	"github.com/dogmatiq/procession/eventstream"
	"github.com/dogmatiq/procession/process"
)

// RouterStub is a test implementation of the process.Router interface.
type RouterStub struct {
	process.Router

	AckEventFunc func(context.Context, *process.Instance, eventstream.Event) error
}

// AckEvent acknowledges that inst has finished with ev.
func (r *RouterStub) AckEvent(
	ctx context.Context,
	inst *process.Instance,
	ev eventstream.Event,
) error {
	if r.AckEventFunc != nil {
		return r.AckEventFunc(ctx, inst, ev)
	}

	if r.Router != nil {
		return r.Router.AckEvent(ctx, inst, ev)
	}

	return nil
}
