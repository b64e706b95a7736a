package commandbus

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/dogmatiq/procession/process"
)

// Handler is a function that executes a single command.
//
// opts carries the correlation meta-data propagated from the event that
// caused the command.
type Handler func(ctx context.Context, c process.Command, opts process.DispatchOptions) error

// Bus is an in-process implementation of process.Dispatcher that routes
// commands to handlers based on the command's type.
//
// Handlers must tolerate at-least-once delivery; see the documentation of
// process.Dispatcher.
type Bus struct {
	m        sync.RWMutex
	handlers map[reflect.Type]Handler
}

// RegisterHandler registers h as the handler for commands with the same
// type as c.
//
// It panics if a handler is already registered for that type.
func (b *Bus) RegisterHandler(c process.Command, h Handler) {
	rt := reflect.TypeOf(c)

	b.m.Lock()
	defer b.m.Unlock()

	if _, ok := b.handlers[rt]; ok {
		panic(fmt.Sprintf(
			"a handler for %s commands is already registered",
			rt,
		))
	}

	if b.handlers == nil {
		b.handlers = map[reflect.Type]Handler{}
	}

	b.handlers[rt] = h
}

// Dispatch routes c to the handler registered for its type.
func (b *Bus) Dispatch(
	ctx context.Context,
	c process.Command,
	opts process.DispatchOptions,
) error {
	rt := reflect.TypeOf(c)

	b.m.RLock()
	h, ok := b.handlers[rt]
	b.m.RUnlock()

	if !ok {
		return fmt.Errorf("no route for '%s' commands", rt)
	}

	return h(ctx, c, opts)
}
