package process

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/dogmatiq/configkit"
	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/linger"
	"github.com/dogmatiq/marshalkit"
	"github.com/dogmatiq/procession/eventstream"
	"github.com/dogmatiq/procession/internal/mlog"
	"github.com/dogmatiq/procession/persistence"
)

// mailboxCapacity is the number of events an instance's mailbox can buffer
// before ProcessEvent() blocks. Routers deliver at most one event at a
// time, so a small buffer only serves to decouple delivery from handling.
const mailboxCapacity = 1

// errStopped is a sentinel used within the run-loop to terminate the
// instance when a stop is requested with a nil reason, which is a normal
// termination, not a failure.
var errStopped = errors.New("instance stopped")

// stopReason converts the reason carried by a stop directive or *StopError
// into the error returned through the run-loop.
func stopReason(reason error) error {
	if reason == nil {
		return errStopped
	}

	return reason
}

// Instance is a single live execution of a workflow definition, scoped to
// one workflow identity.
//
// Exactly one goroutine, started by Run(), performs event intake, handling,
// command dispatch, state application, snapshot persistence and
// acknowledgement. Events delivered to an instance are handled strictly in
// FIFO order; instances with different identities run independently of one
// another.
type Instance struct {
	// Identity is the identity of the workflow instance. It must not change
	// for the lifetime of the instance.
	Identity configkit.Identity

	// Definition implements the application-specific workflow logic.
	Definition Definition

	// Router is notified as the instance finishes with each event.
	Router Router

	// Dispatcher is used to dispatch the commands produced by the workflow.
	Dispatcher Dispatcher

	// Snapshots is the repository used to load and persist the instance's
	// snapshots.
	Snapshots persistence.SnapshotRepository

	// Marshaler is used to marshal and unmarshal the workflow state inside
	// snapshots.
	Marshaler marshalkit.ValueMarshaler

	// Logger is the target for log messages produced by the instance.
	// If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger

	once   sync.Once
	events chan eventstream.Event
	stops  chan chan<- error
	done   chan struct{}

	// m guards the fields below, which are written by the Run() goroutine
	// and read by the accessor methods.
	m          sync.Mutex
	state      State
	lastOffset eventstream.Offset
	seen       bool
}

// Run executes the instance until ctx is canceled, the instance is stopped,
// or handling fails in a way that is fatal to the instance.
//
// The instance's state is rehydrated from its snapshot, if one exists,
// before the first event is dequeued.
//
// If the workflow ends via a stop directive or a *StopError, Run() returns
// the reason carried by the directive or error, which may be nil.
func (i *Instance) Run(ctx context.Context) error {
	i.init()
	defer close(i.done)

	if err := i.rehydrate(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case reply := <-i.stops:
			err := i.end(ctx)
			reply <- err
			return err

		case ev := <-i.events:
			if err := i.processEvent(ctx, ev); err != nil {
				if err == errStopped {
					return nil
				}

				return err
			}
		}
	}
}

// ProcessEvent enqueues an event for handling by the instance.
//
// Events are handled in the order they are enqueued. It blocks until the
// mailbox accepts the event, the instance terminates, or ctx is canceled.
func (i *Instance) ProcessEvent(ctx context.Context, ev eventstream.Event) error {
	i.init()

	// A terminated instance never drains its mailbox, so termination is
	// checked before offering the event to the buffered mailbox.
	select {
	case <-i.done:
	default:
		select {
		case i.events <- ev:
			return nil
		case <-i.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf(
		"unable to deliver event %s: instance %s has terminated",
		ev.ID,
		i.Identity,
	)
}

// Stop ends the workflow instance.
//
// The instance's persisted snapshot is removed, then Run() returns. Any
// event already being handled completes first. Stop() does not return
// until the instance has terminated, or ctx is canceled.
func (i *Instance) Stop(ctx context.Context) error {
	i.init()

	reply := make(chan error, 1)

	select {
	case i.stops <- reply:
	case <-i.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	var err error

	select {
	case err = <-reply:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-i.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsNew returns true if no event has ever been applied to the instance,
// that is, its state has never advanced beyond the value produced by the
// definition's New() method.
func (i *Instance) IsNew() bool {
	i.init()

	i.m.Lock()
	defer i.m.Unlock()

	return !i.seen
}

// State returns the instance's current workflow state.
func (i *Instance) State() State {
	i.init()

	i.m.Lock()
	defer i.m.Unlock()

	return i.state
}

// init prepares the instance for use. It is safe to call from any
// goroutine, any number of times.
func (i *Instance) init() {
	i.once.Do(func() {
		i.events = make(chan eventstream.Event, mailboxCapacity)
		i.stops = make(chan chan<- error)
		i.done = make(chan struct{})
		i.state = i.Definition.New()
	})
}

// rehydrate replaces the instance's state with the content of its persisted
// snapshot, if one exists.
//
// Snapshot read failures other than "not found" are fatal to the instance.
func (i *Instance) rehydrate(ctx context.Context) error {
	id := SnapshotID(i.Identity)

	sn, ok, err := i.Snapshots.LoadSnapshot(ctx, id)
	if err != nil {
		return fmt.Errorf(
			"unable to load snapshot %s: %w",
			id,
			err,
		)
	}

	if !ok {
		return nil
	}

	if st := sourceType(i.Definition); sn.SourceType != st {
		logging.Debug(
			i.Logger,
			"snapshot %s was produced by %s, not %s",
			id,
			sn.SourceType,
			st,
		)
	}

	s, err := i.Marshaler.Unmarshal(sn.Packet)
	if err != nil {
		return fmt.Errorf(
			"unable to unmarshal snapshot %s: %w",
			id,
			err,
		)
	}

	i.m.Lock()
	i.state = s
	i.lastOffset = eventstream.Offset(sn.Version)
	i.seen = true
	i.m.Unlock()

	return nil
}

// processEvent handles a single event dequeued from the mailbox.
func (i *Instance) processEvent(ctx context.Context, ev eventstream.Event) error {
	i.m.Lock()
	dup := i.seen && ev.Offset <= i.lastOffset
	i.m.Unlock()

	if dup {
		mlog.LogDuplicate(i.Logger, ev)
		return i.ack(ctx, ev)
	}

	return i.handleUnseen(ctx, ev)
}

// handleUnseen runs the full pipeline for an event that has not been
// applied to the instance: handler invocation, command dispatch, state
// application, snapshot persistence and acknowledgement.
//
// Failures are routed through the definition's failure-handling protocol.
// The loop is unbounded; limiting retries is the definition's
// responsibility.
func (i *Instance) handleUnseen(ctx context.Context, ev eventstream.Event) error {
	var (
		fctx map[string]interface{}
		fc   uint
	)

	for {
		mlog.LogConsume(i.Logger, ev, fc)

		cmds, err := i.handle(ev)
		if err == nil {
			if err := i.dispatch(ctx, ev, cmds, fctx); err != nil {
				return err
			}

			return i.commit(ctx, ev)
		}

		if stop, ok := err.(*StopError); ok {
			mlog.LogStop(i.Logger, SnapshotID(i.Identity), stop.Reason)
			return stopReason(stop.Reason)
		}

		fc++

		d := i.Definition.HandleFailure(err, ev.Message, FailureContext{
			State:   i.State(),
			Event:   ev,
			Context: fctx,
		})

		switch d := d.(type) {
		case Retry:
			mlog.LogEventFailure(i.Logger, ev, err, "retrying")
			fctx = d.Context

		case RetryAfter:
			mlog.LogEventFailure(i.Logger, ev, err, fmt.Sprintf("retrying in %s", d.Delay))
			if err := linger.Sleep(ctx, d.Delay); err != nil {
				return err
			}
			fctx = d.Context

		case Skip:
			mlog.LogEventFailure(i.Logger, ev, err, "skipping event")
			return i.ack(ctx, ev)

		case Stop:
			mlog.LogEventFailure(i.Logger, ev, err, "stopping instance")
			return stopReason(d.Reason)

		default:
			mlog.LogEventFailure(i.Logger, ev, err, fmt.Sprintf(
				"unrecognized %T directive, stopping instance",
				d,
			))
			return err
		}
	}
}

// handle invokes the definition's event handler, reifying any panic as an
// error.
func (i *Instance) handle(ev eventstream.Event) (_ []Command, err error) {
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("panic in %T.Handle(): %v", i.Definition, v)
			}
		}
	}()

	return i.Definition.Handle(i.State(), ev.Message)
}

// dispatch sends the commands produced by an event, in order, through the
// dispatcher.
//
// A nil return value indicates that the event's dispatch is to be treated
// as successful, meaning the post-success path (apply, snapshot, ack) must
// run.
func (i *Instance) dispatch(
	ctx context.Context,
	ev eventstream.Event,
	pending []Command,
	fctx map[string]interface{},
) error {
	opts := DispatchOptions{
		CausationID:   ev.ID,
		CorrelationID: ev.CorrelationID,
	}

	for len(pending) != 0 {
		c := pending[0]

		err := i.Dispatcher.Dispatch(ctx, c, opts)
		if err == nil {
			mlog.LogProduce(i.Logger, ev, c)
			pending = pending[1:]
			continue
		}

		d := i.Definition.HandleFailure(err, c, FailureContext{
			PendingCommands: pending[1:],
			State:           i.Definition.Apply(i.State(), ev.Message),
			Event:           ev,
			Context:         fctx,
		})

		switch d := d.(type) {
		case Retry:
			mlog.LogCommandFailure(i.Logger, ev, c, err, "retrying command")
			fctx = d.Context

		case RetryAfter:
			mlog.LogCommandFailure(i.Logger, ev, c, err, fmt.Sprintf("retrying command in %s", d.Delay))
			if err := linger.Sleep(ctx, d.Delay); err != nil {
				return err
			}
			fctx = d.Context

		case Continue:
			mlog.LogCommandFailure(i.Logger, ev, c, err, "replacing commands")
			pending = d.Commands
			fctx = d.Context

		case SkipDiscardPending:
			mlog.LogCommandFailure(i.Logger, ev, c, err, "discarding command and pending commands")
			pending = nil

		case SkipContinuePending:
			mlog.LogCommandFailure(i.Logger, ev, c, err, "discarding command")
			pending = pending[1:]

		case Stop:
			mlog.LogCommandFailure(i.Logger, ev, c, err, "stopping instance")
			return stopReason(d.Reason)

		default:
			mlog.LogCommandFailure(i.Logger, ev, c, err, fmt.Sprintf(
				"unrecognized %T directive, stopping instance",
				d,
			))
			return err
		}
	}

	return nil
}

// commit runs the post-success path for an event: the event is applied to
// the workflow state, a snapshot of the new state is persisted, the
// instance's last-seen offset advances, and the event is acknowledged.
//
// The order is a contract. No snapshot is written until every command was
// accepted by the dispatcher, and no acknowledgement is sent until the
// snapshot is durable, so that replay after a crash between any two steps
// is resolved by the duplicate check in processEvent().
func (i *Instance) commit(ctx context.Context, ev eventstream.Event) error {
	next := i.Definition.Apply(i.State(), ev.Message)

	packet, err := i.Marshaler.Marshal(next)
	if err != nil {
		return fmt.Errorf(
			"unable to marshal state of instance %s: %w",
			i.Identity,
			err,
		)
	}

	sn := persistence.Snapshot{
		SourceID:   SnapshotID(i.Identity),
		Version:    uint64(ev.Offset),
		SourceType: sourceType(i.Definition),
		Packet:     packet,
	}

	if err := i.Snapshots.SaveSnapshot(ctx, sn); err != nil {
		return fmt.Errorf(
			"unable to save snapshot %s: %w",
			sn.SourceID,
			err,
		)
	}

	i.m.Lock()
	i.state = next
	i.lastOffset = ev.Offset
	i.seen = true
	i.m.Unlock()

	return i.ack(ctx, ev)
}

// ack notifies the router that the instance has finished with ev.
//
// Acknowledgement failures are fatal to the instance.
func (i *Instance) ack(ctx context.Context, ev eventstream.Event) error {
	if err := i.Router.AckEvent(ctx, i, ev); err != nil {
		return fmt.Errorf(
			"unable to acknowledge event %s: %w",
			ev.ID,
			err,
		)
	}

	return nil
}

// end removes the instance's persisted snapshot as part of an orderly stop.
func (i *Instance) end(ctx context.Context) error {
	id := SnapshotID(i.Identity)

	if err := i.Snapshots.RemoveSnapshot(ctx, id); err != nil {
		return fmt.Errorf(
			"unable to remove snapshot %s: %w",
			id,
			err,
		)
	}

	mlog.LogStop(i.Logger, id, nil)

	return nil
}

// sourceType returns a stable identifier for the type of a workflow
// definition, recorded in snapshots so that readers can detect schema
// drift.
func sourceType(d Definition) string {
	return reflect.TypeOf(d).String()
}
