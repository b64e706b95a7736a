package procession

import (
	"context"
	"fmt"
	"sync"

	"github.com/dogmatiq/procession/eventstream"
	"github.com/dogmatiq/procession/persistence"
	"github.com/dogmatiq/procession/process"
	"golang.org/x/sync/errgroup"
)

// Engine hosts a set of workflow definitions, routing events to their
// instances.
type Engine struct {
	opts       *engineOptions
	dataStores *persistence.DataStoreSet

	ready chan struct{}

	m           sync.Mutex
	supervisors map[string]*process.Supervisor
}

// New returns a new engine that hosts the workflows registered via
// WithProcessManager().
func New(options ...EngineOption) *Engine {
	opts := resolveEngineOptions(options...)

	return &Engine{
		opts: opts,
		dataStores: &persistence.DataStoreSet{
			Provider: opts.PersistenceProvider,
		},
		ready: make(chan struct{}),
	}
}

// Run hosts the configured workflows until ctx is canceled or an error
// occurs.
func (e *Engine) Run(ctx context.Context) error {
	defer e.dataStores.Close()

	ds, err := e.dataStores.Get(ctx, e.opts.ApplicationKey)
	if err != nil {
		return fmt.Errorf(
			"unable to open the data-store for %s: %w",
			e.opts.ApplicationKey,
			err,
		)
	}

	g, ctx := errgroup.WithContext(ctx)

	e.m.Lock()
	e.supervisors = map[string]*process.Supervisor{}

	for _, w := range e.opts.Workflows {
		s := &process.Supervisor{
			Name:           w.Name,
			Definition:     w.Definition,
			Dispatcher:     e.opts.Dispatcher,
			Snapshots:      ds.SnapshotRepository(),
			Marshaler:      e.opts.Marshaler,
			RestartBackoff: e.opts.RestartBackoff,
			Logger:         e.opts.Logger,
		}

		e.supervisors[w.Name] = s

		g.Go(func() error {
			return s.Run(ctx)
		})
	}
	e.m.Unlock()

	close(e.ready)

	return g.Wait()
}

// RouteEvent delivers ev to the instance of the named workflow with the
// given instance ID.
//
// It blocks until the instance has finished with the event, the instance
// terminates, or ctx is canceled. It is the integration point for whatever
// feeds events to the engine; subscription management is out of scope.
func (e *Engine) RouteEvent(
	ctx context.Context,
	name, id string,
	ev eventstream.Event,
) error {
	s, err := e.supervisor(ctx, name)
	if err != nil {
		return err
	}

	return s.Route(ctx, id, ev)
}

// StopInstance ends the instance of the named workflow with the given
// instance ID, removing its persisted snapshot.
func (e *Engine) StopInstance(
	ctx context.Context,
	name, id string,
) error {
	s, err := e.supervisor(ctx, name)
	if err != nil {
		return err
	}

	return s.StopInstance(ctx, id)
}

// supervisor returns the supervisor for the named workflow, waiting until
// the engine is running.
func (e *Engine) supervisor(
	ctx context.Context,
	name string,
) (*process.Supervisor, error) {
	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	e.m.Lock()
	s, ok := e.supervisors[name]
	e.m.Unlock()

	if !ok {
		return nil, fmt.Errorf(
			"no workflow named %s is hosted by this engine",
			name,
		)
	}

	return s, nil
}
