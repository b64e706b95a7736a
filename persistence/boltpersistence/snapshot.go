package boltpersistence

import (
	"context"

	"github.com/dogmatiq/procession/internal/x/bboltx"
	"github.com/dogmatiq/procession/persistence"
	"go.etcd.io/bbolt"
)

var (
	// snapshotBucketKey is the key for the bucket containing workflow
	// snapshots, nested within each application's root bucket.
	//
	// The keys are snapshot source IDs. The values are buckets holding the
	// fields of a single snapshot.
	snapshotBucketKey = []byte("snapshot")

	// snapshotVersionKey is the key for the snapshot's version, marshaled
	// as a big-endian uint64.
	snapshotVersionKey = []byte("version")

	// snapshotSourceTypeKey is the key for the snapshot's source type.
	snapshotSourceTypeKey = []byte("source_type")

	// snapshotMediaTypeKey is the key for the media-type of the snapshot's
	// state data.
	snapshotMediaTypeKey = []byte("media_type")

	// snapshotDataKey is the key for the snapshot's state data.
	snapshotDataKey = []byte("data")
)

// LoadSnapshot loads the snapshot with the given source ID.
//
// ok is false if no snapshot has been recorded under id.
func (ds *dataStore) LoadSnapshot(
	ctx context.Context,
	id string,
) (sn persistence.Snapshot, ok bool, err error) {
	defer bboltx.Recover(&err)

	ds.m.RLock()
	defer ds.m.RUnlock()

	if err := ds.checkOpen(); err != nil {
		return persistence.Snapshot{}, false, err
	}

	bboltx.View(
		ds.db,
		func(tx *bbolt.Tx) {
			b, exists := bboltx.TryBucket(
				tx,
				ds.appKey,
				snapshotBucketKey,
				[]byte(id),
			)
			if !exists {
				return
			}

			sn = persistence.Snapshot{
				SourceID:   id,
				Version:    unmarshalUint64(b.Get(snapshotVersionKey)),
				SourceType: string(b.Get(snapshotSourceTypeKey)),
			}
			sn.Packet.MediaType = string(b.Get(snapshotMediaTypeKey))
			sn.Packet.Data = append([]byte(nil), b.Get(snapshotDataKey)...)

			ok = true
		},
	)

	return sn, ok, nil
}

// SaveSnapshot creates or replaces the snapshot stored under s.SourceID.
//
// The write is atomic: it occurs entirely within a single BoltDB
// transaction.
func (ds *dataStore) SaveSnapshot(
	ctx context.Context,
	s persistence.Snapshot,
) (err error) {
	defer bboltx.Recover(&err)

	ds.m.RLock()
	defer ds.m.RUnlock()

	if err := ds.checkOpen(); err != nil {
		return err
	}

	bboltx.Update(
		ds.db,
		func(tx *bbolt.Tx) {
			b := bboltx.CreateBucketIfNotExists(
				tx,
				ds.appKey,
				snapshotBucketKey,
				[]byte(s.SourceID),
			)

			bboltx.Put(b, snapshotVersionKey, marshalUint64(s.Version))
			bboltx.Put(b, snapshotSourceTypeKey, []byte(s.SourceType))
			bboltx.Put(b, snapshotMediaTypeKey, []byte(s.Packet.MediaType))
			bboltx.Put(b, snapshotDataKey, s.Packet.Data)
		},
	)

	return nil
}

// RemoveSnapshot removes the snapshot with the given source ID, if it
// exists.
func (ds *dataStore) RemoveSnapshot(
	ctx context.Context,
	id string,
) (err error) {
	defer bboltx.Recover(&err)

	ds.m.RLock()
	defer ds.m.RUnlock()

	if err := ds.checkOpen(); err != nil {
		return err
	}

	bboltx.Update(
		ds.db,
		func(tx *bbolt.Tx) {
			bboltx.DeleteBucketIfExists(
				tx,
				ds.appKey,
				snapshotBucketKey,
				[]byte(id),
			)
		},
	)

	return nil
}
