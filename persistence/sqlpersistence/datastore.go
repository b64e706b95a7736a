package sqlpersistence

import (
	"database/sql"
	"sync"

	"github.com/dogmatiq/procession/persistence"
)

// dataStore is an implementation of persistence.DataStore for SQL
// databases.
type dataStore struct {
	db     *sql.DB
	driver Driver
	appKey string

	m       sync.RWMutex
	release func(string) error
}

// SnapshotRepository returns the application's workflow snapshot
// repository.
func (ds *dataStore) SnapshotRepository() persistence.SnapshotRepository {
	return ds
}

// Close closes the data-store.
//
// Closing a data-store causes any future persistence operations to return
// ErrDataStoreClosed.
func (ds *dataStore) Close() error {
	ds.m.Lock()
	defer ds.m.Unlock()

	if ds.release == nil {
		return persistence.ErrDataStoreClosed
	}

	r := ds.release
	ds.release = nil

	return r(ds.appKey)
}

// checkOpen returns an error if the data-store is closed. ds.m must be held
// for reading.
func (ds *dataStore) checkOpen() error {
	if ds.release == nil {
		return persistence.ErrDataStoreClosed
	}

	return nil
}
