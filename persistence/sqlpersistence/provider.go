package sqlpersistence

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dogmatiq/procession/persistence"
	"github.com/dogmatiq/procession/persistence/sqlpersistence/mysql"
	"github.com/dogmatiq/procession/persistence/sqlpersistence/sqlite"
	"go.uber.org/multierr"
)

// Provider is an implementation of persistence.Provider for SQL databases.
type Provider struct {
	// DB is the database to use.
	DB *sql.DB

	// Driver is used to interface with the underlying database. If it is
	// nil, it is detected by calling NewDriver() the first time a
	// data-store is opened.
	Driver Driver

	m    sync.Mutex
	apps map[string]struct{}
}

// NewDriver returns the appropriate driver implementation to use with the
// given database.
func NewDriver(ctx context.Context, db *sql.DB) (Driver, error) {
	candidates := []Driver{
		mysql.Driver,
		sqlite.Driver,
	}

	var err error
	for _, d := range candidates {
		e := d.IsCompatibleWith(ctx, db)
		if e == nil {
			return d, nil
		}

		err = multierr.Append(
			err,
			fmt.Errorf("%T is incompatible: %w", d, e),
		)
	}

	return nil, fmt.Errorf(
		"could not find a driver that is compatible with this database: %w",
		err,
	)
}

// Open returns a data-store for a specific application.
//
// k is the identity key of the application.
//
// Data-stores are opened for exclusive use. If another data-store for this
// application is already open, ErrDataStoreLocked is returned.
func (p *Provider) Open(ctx context.Context, k string) (persistence.DataStore, error) {
	p.m.Lock()
	defer p.m.Unlock()

	if p.Driver == nil {
		d, err := NewDriver(ctx, p.DB)
		if err != nil {
			return nil, err
		}

		p.Driver = d
	}

	if p.apps == nil {
		p.apps = map[string]struct{}{}
	} else if _, ok := p.apps[k]; ok {
		return nil, persistence.ErrDataStoreLocked
	}

	p.apps[k] = struct{}{}

	return &dataStore{
		db:      p.DB,
		driver:  p.Driver,
		appKey:  k,
		release: p.release,
	}, nil
}

// release marks a previously-opened data-store as closed, releasing the
// lock on that application.
func (p *Provider) release(k string) error {
	p.m.Lock()
	defer p.m.Unlock()

	delete(p.apps, k)

	return nil
}
