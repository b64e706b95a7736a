package sqlpersistence

import (
	"context"

	"github.com/dogmatiq/procession/persistence"
)

// LoadSnapshot loads the snapshot with the given source ID.
//
// ok is false if no snapshot has been recorded under id.
func (ds *dataStore) LoadSnapshot(
	ctx context.Context,
	id string,
) (persistence.Snapshot, bool, error) {
	ds.m.RLock()
	defer ds.m.RUnlock()

	if err := ds.checkOpen(); err != nil {
		return persistence.Snapshot{}, false, err
	}

	return ds.driver.SelectSnapshot(ctx, ds.db, ds.appKey, id)
}

// SaveSnapshot creates or replaces the snapshot stored under s.SourceID.
func (ds *dataStore) SaveSnapshot(
	ctx context.Context,
	s persistence.Snapshot,
) error {
	ds.m.RLock()
	defer ds.m.RUnlock()

	if err := ds.checkOpen(); err != nil {
		return err
	}

	return ds.driver.UpsertSnapshot(ctx, ds.db, ds.appKey, s)
}

// RemoveSnapshot removes the snapshot with the given source ID, if it
// exists.
func (ds *dataStore) RemoveSnapshot(
	ctx context.Context,
	id string,
) error {
	ds.m.RLock()
	defer ds.m.RUnlock()

	if err := ds.checkOpen(); err != nil {
		return err
	}

	return ds.driver.DeleteSnapshot(ctx, ds.db, ds.appKey, id)
}
