package procession

import (
	"fmt"
	"reflect"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/linger/backoff"
	"github.com/dogmatiq/marshalkit"
	"github.com/dogmatiq/marshalkit/codec"
	"github.com/dogmatiq/marshalkit/codec/json"
	"github.com/dogmatiq/procession/persistence"
	"github.com/dogmatiq/procession/persistence/memorypersistence"
	"github.com/dogmatiq/procession/process"
)

var (
	// DefaultApplicationKey is the key under which the engine's data is
	// persisted.
	//
	// It is overridden by the WithApplicationKey() option.
	DefaultApplicationKey = "procession"

	// DefaultPersistenceProvider is the default persistence provider.
	//
	// It is overridden by the WithPersistence() option.
	DefaultPersistenceProvider persistence.Provider = &memorypersistence.Provider{}

	// DefaultLogger is the default target for log messages produced by the
	// engine.
	//
	// It is overridden by the WithLogger() option.
	DefaultLogger = logging.DefaultLogger
)

// EngineOption configures the behavior of an engine.
type EngineOption func(*engineOptions)

// Workflow is a named workflow definition hosted by an engine.
type Workflow struct {
	// Name is the name of the workflow. It forms part of the identity of
	// each of the workflow's instances.
	Name string

	// Definition implements the application-specific workflow logic.
	Definition process.Definition
}

// WithProcessManager returns an engine option that hosts an additional
// workflow definition on the engine.
//
// At least one workflow must be registered.
func WithProcessManager(name string, d process.Definition) EngineOption {
	if name == "" {
		panic("workflow name must not be empty")
	}

	if d == nil {
		panic("workflow definition must not be nil")
	}

	return func(opts *engineOptions) {
		for _, w := range opts.Workflows {
			if w.Name == name {
				panic(fmt.Sprintf(
					"can not host two workflows named %s",
					name,
				))
			}
		}

		opts.Workflows = append(opts.Workflows, Workflow{
			Name:       name,
			Definition: d,
		})
	}
}

// WithApplicationKey returns an engine option that sets the key under which
// the engine's data is persisted.
//
// If this option is omitted or k is empty, DefaultApplicationKey is used.
func WithApplicationKey(k string) EngineOption {
	return func(opts *engineOptions) {
		opts.ApplicationKey = k
	}
}

// WithPersistence returns an engine option that sets the persistence
// provider used to store and retrieve workflow state.
//
// If this option is omitted or p is nil, DefaultPersistenceProvider is
// used.
func WithPersistence(p persistence.Provider) EngineOption {
	return func(opts *engineOptions) {
		opts.PersistenceProvider = p
	}
}

// WithDispatcher returns an engine option that sets the dispatcher used to
// deliver the commands produced by workflows.
//
// This option is required.
func WithDispatcher(d process.Dispatcher) EngineOption {
	return func(opts *engineOptions) {
		opts.Dispatcher = d
	}
}

// WithMarshaler returns an engine option that sets the marshaler used to
// marshal and unmarshal workflow state.
//
// If this option is omitted or m is nil, NewDefaultMarshaler() is called to
// obtain the default marshaler.
func WithMarshaler(m marshalkit.Marshaler) EngineOption {
	return func(opts *engineOptions) {
		opts.Marshaler = m
	}
}

// WithRestartBackoff returns an engine option that sets the strategy used
// to delay restarting workflow instances that terminate with a failure.
//
// If this option is omitted or s is nil, process.DefaultRestartBackoff is
// used.
func WithRestartBackoff(s backoff.Strategy) EngineOption {
	return func(opts *engineOptions) {
		opts.RestartBackoff = s
	}
}

// WithLogger returns an engine option that sets the target for log messages
// produced by the engine.
//
// If this option is omitted or l is nil, DefaultLogger is used.
func WithLogger(l logging.Logger) EngineOption {
	return func(opts *engineOptions) {
		opts.Logger = l
	}
}

// NewDefaultMarshaler returns the default marshaler to use for the given
// workflows.
//
// It is used if the WithMarshaler() option is omitted. It marshals each
// workflow's state using the JSON codec.
func NewDefaultMarshaler(workflows []Workflow) marshalkit.Marshaler {
	var types []reflect.Type
	seen := map[reflect.Type]struct{}{}

	for _, w := range workflows {
		s := w.Definition.New()
		if s == nil {
			continue
		}

		t := reflect.TypeOf(s)
		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}
		types = append(types, t)
	}

	m, err := codec.NewMarshaler(
		types,
		[]codec.Codec{
			&json.Codec{},
		},
	)
	if err != nil {
		panic(err)
	}

	return m
}

// engineOptions is a container for a fully-resolved set of engine options.
type engineOptions struct {
	ApplicationKey      string
	Workflows           []Workflow
	PersistenceProvider persistence.Provider
	Dispatcher          process.Dispatcher
	Marshaler           marshalkit.Marshaler
	RestartBackoff      backoff.Strategy
	Logger              logging.Logger
}

// resolveEngineOptions returns a fully-populated set of engine options
// built from the given options.
func resolveEngineOptions(options ...EngineOption) *engineOptions {
	opts := &engineOptions{}

	for _, o := range options {
		o(opts)
	}

	if len(opts.Workflows) == 0 {
		panic("at least one workflow must be registered, see WithProcessManager()")
	}

	if opts.Dispatcher == nil {
		panic("no dispatcher is configured, see WithDispatcher()")
	}

	if opts.ApplicationKey == "" {
		opts.ApplicationKey = DefaultApplicationKey
	}

	if opts.PersistenceProvider == nil {
		opts.PersistenceProvider = DefaultPersistenceProvider
	}

	if opts.Marshaler == nil {
		opts.Marshaler = NewDefaultMarshaler(opts.Workflows)
	}

	if opts.Logger == nil {
		opts.Logger = DefaultLogger
	}

	return opts
}
