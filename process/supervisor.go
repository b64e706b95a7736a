package process

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dogmatiq/configkit"
	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/linger"
	"github.com/dogmatiq/linger/backoff"
	"github.com/dogmatiq/marshalkit"
	"github.com/dogmatiq/procession/eventstream"
	"github.com/dogmatiq/procession/persistence"
)

// DefaultRestartBackoff is the default strategy used to delay restarting a
// workflow instance that has terminated with a failure.
//
// It is overridden by the Supervisor.RestartBackoff field.
var DefaultRestartBackoff backoff.Strategy = backoff.WithTransforms(
	backoff.Exponential(100*time.Millisecond),
	linger.FullJitter,
	linger.Limiter(0, 1*time.Hour),
)

// Supervisor hosts the workflow instances of a single definition.
//
// It starts instances on demand as events are routed to them, delivers one
// event at a time to each instance, and restarts instances that terminate
// with a failure. A restarted instance rehydrates from its snapshot, so
// events that had already been acknowledged are deduplicated on replay.
type Supervisor struct {
	// Name is the name of the workflow. Together with an instance ID it
	// forms the identity of each workflow instance.
	Name string

	// Definition implements the application-specific workflow logic.
	Definition Definition

	// Dispatcher is used to dispatch the commands produced by the workflow.
	Dispatcher Dispatcher

	// Snapshots is the repository used to load and persist instance
	// snapshots.
	Snapshots persistence.SnapshotRepository

	// Marshaler is used to marshal and unmarshal workflow state inside
	// snapshots.
	Marshaler marshalkit.ValueMarshaler

	// RestartBackoff is the strategy used to delay restarting an instance
	// after it terminates with a failure. If it is nil,
	// DefaultRestartBackoff is used.
	RestartBackoff backoff.Strategy

	// Logger is the target for log messages produced by the supervisor and
	// its instances. If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger

	once  sync.Once
	ready chan struct{}
	wg    sync.WaitGroup

	m        sync.Mutex
	ctx      context.Context
	entries  map[string]*supervised
	failures map[string]uint
}

// supervised tracks one live workflow instance.
type supervised struct {
	instance *Instance
	acks     chan eventstream.Event
	done     chan struct{}
	err      error // valid only after done is closed
}

// Run executes the supervisor until ctx is canceled.
//
// Events can not be routed until Run() has been called.
func (s *Supervisor) Run(ctx context.Context) error {
	s.init()

	s.m.Lock()
	s.ctx = ctx
	s.m.Unlock()

	close(s.ready)

	<-ctx.Done()
	s.wg.Wait()

	return ctx.Err()
}

// Route delivers ev to the workflow instance with the given ID, starting
// the instance if it is not already live.
//
// It blocks until the instance acknowledges the event, the instance
// terminates, or ctx is canceled. At most one event is in flight per
// instance at any time.
func (s *Supervisor) Route(
	ctx context.Context,
	id string,
	ev eventstream.Event,
) error {
	e, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}

	if err := e.instance.ProcessEvent(ctx, ev); err != nil {
		return err
	}

	select {
	case <-e.acks:
		s.m.Lock()
		delete(s.failures, id)
		s.m.Unlock()
		return nil

	case <-e.done:
		if e.err != nil {
			return fmt.Errorf(
				"instance %s terminated while handling event %s: %w",
				e.instance.Identity,
				ev.ID,
				e.err,
			)
		}

		return fmt.Errorf(
			"instance %s terminated while handling event %s",
			e.instance.Identity,
			ev.ID,
		)

	case <-ctx.Done():
		return ctx.Err()
	}
}

// AckEvent acknowledges that inst has finished with ev, unblocking the
// Route() call that delivered it.
func (s *Supervisor) AckEvent(
	ctx context.Context,
	inst *Instance,
	ev eventstream.Event,
) error {
	s.m.Lock()
	e := s.entries[inst.Identity.Key]
	s.m.Unlock()

	if e == nil || e.instance != inst {
		return fmt.Errorf(
			"instance %s is not supervised by this supervisor",
			inst.Identity,
		)
	}

	select {
	case e.acks <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopInstance ends the workflow instance with the given ID, removing its
// persisted snapshot.
//
// If the instance is not live its snapshot is removed directly.
func (s *Supervisor) StopInstance(ctx context.Context, id string) error {
	s.init()

	s.m.Lock()
	e := s.entries[id]
	s.m.Unlock()

	if e == nil {
		return s.Snapshots.RemoveSnapshot(
			ctx,
			SnapshotID(s.identity(id)),
		)
	}

	if err := e.instance.Stop(ctx); err != nil {
		return err
	}

	// Wait until the instance is no longer live, so that the next event
	// routed to this ID starts a fresh instance.
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// init prepares the supervisor for use.
func (s *Supervisor) init() {
	s.once.Do(func() {
		s.ready = make(chan struct{})
		s.entries = map[string]*supervised{}
		s.failures = map[string]uint{}
	})
}

// identity returns the identity of the workflow instance with the given ID.
func (s *Supervisor) identity(id string) configkit.Identity {
	return configkit.MustNewIdentity(s.Name, id)
}

// acquire returns the live instance with the given ID, starting one if
// necessary.
//
// If the instance's previous execution terminated with a failure, the start
// is delayed according to the restart backoff strategy.
func (s *Supervisor) acquire(ctx context.Context, id string) (*supervised, error) {
	s.init()

	select {
	case <-s.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for {
		s.m.Lock()

		if e, ok := s.entries[id]; ok {
			s.m.Unlock()
			return e, nil
		}

		n := s.failures[id]
		runCtx := s.ctx

		if n == 0 {
			e := s.start(runCtx, id)
			s.m.Unlock()
			return e, nil
		}

		s.m.Unlock()

		p := s.RestartBackoff
		if p == nil {
			p = DefaultRestartBackoff
		}

		if err := linger.Sleep(ctx, p(nil, n-1)); err != nil {
			return nil, err
		}

		s.m.Lock()
		delete(s.failures, id)
		s.m.Unlock()
	}
}

// start launches a new instance with the given ID. s.m must be held.
func (s *Supervisor) start(runCtx context.Context, id string) *supervised {
	inst := &Instance{
		Identity:   s.identity(id),
		Definition: s.Definition,
		Router:     s,
		Dispatcher: s.Dispatcher,
		Snapshots:  s.Snapshots,
		Marshaler:  s.Marshaler,
		Logger:     s.Logger,
	}

	e := &supervised{
		instance: inst,
		acks:     make(chan eventstream.Event, 1),
		done:     make(chan struct{}),
	}

	s.entries[id] = e

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := inst.Run(runCtx)

		s.m.Lock()
		delete(s.entries, id)

		if err != nil && !errors.Is(err, context.Canceled) {
			s.failures[id]++

			logging.Log(
				s.Logger,
				"workflow instance %s terminated: %s",
				inst.Identity,
				err,
			)
		}
		s.m.Unlock()

		e.err = err
		close(e.done)
	}()

	return e
}
