package memorypersistence

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
	if err := ds.checkOpen(); err != nil {
		return persistence.Snapshot{}, false, err
	}

	ds.db.m.RLock()
	defer ds.db.m.RUnlock()

	sn, ok := ds.db.snapshots[id]
	if !ok {
		return persistence.Snapshot{}, false, nil
	}

	return cloneSnapshot(sn), true, nil
}

// SaveSnapshot creates or replaces the snapshot stored under s.SourceID.
func (ds *dataStore) SaveSnapshot(
	ctx context.Context,
	s persistence.Snapshot,
) error {
	if err := ds.checkOpen(); err != nil {
		return err
	}

	ds.db.m.Lock()
	defer ds.db.m.Unlock()

	ds.db.snapshots[s.SourceID] = cloneSnapshot(s)

	return nil
}

// RemoveSnapshot removes the snapshot with the given source ID, if it
// exists.
func (ds *dataStore) RemoveSnapshot(
	ctx context.Context,
	id string,
) error {
	if err := ds.checkOpen(); err != nil {
		return err
	}

	ds.db.m.Lock()
	defer ds.db.m.Unlock()

	delete(ds.db.snapshots, id)

	return nil
}

// cloneSnapshot returns a copy of sn that does not share its packet data
// with the original, so that callers can not mutate stored snapshots.
func cloneSnapshot(sn persistence.Snapshot) persistence.Snapshot {
	sn.Packet.Data = append([]byte(nil), sn.Packet.Data...)
	return sn
}
