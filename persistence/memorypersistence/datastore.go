package memorypersistence

import (
	"sync/atomic"

	"github.com/dogmatiq/procession/persistence"
)

// dataStore is an implementation of persistence.DataStore that stores data
// in memory.
type dataStore struct {
	db     *database
	closed uint32 // atomic
}

// SnapshotRepository returns the application's workflow snapshot
// repository.
func (ds *dataStore) SnapshotRepository() persistence.SnapshotRepository {
	return ds
}

// Close closes the data-store.
func (ds *dataStore) Close() error {
	if !atomic.CompareAndSwapUint32(&ds.closed, 0, 1) {
		return persistence.ErrDataStoreClosed
	}

	ds.db.Close()

	return nil
}

// checkOpen returns an error if the data-store is closed.
func (ds *dataStore) checkOpen() error {
	if atomic.LoadUint32(&ds.closed) != 0 {
		return persistence.ErrDataStoreClosed
	}

	return nil
}
