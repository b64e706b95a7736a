package persistence

import (
	"context"

	"github.com/dogmatiq/marshalkit"
)

// Snapshot is a durable record of a workflow instance's state, taken after
// an event has been handled to completion.
type Snapshot struct {
	// SourceID identifies the workflow instance the snapshot belongs to. It
	// is the key under which the snapshot is stored.
	SourceID string

	// Version is the offset of the last event that had been applied to the
	// instance's state when the snapshot was taken.
	Version uint64

	// SourceType is a stable identifier of the workflow definition that
	// produced the snapshot, allowing readers to detect that the state's
	// schema may have drifted.
	SourceType string

	// Packet contains the binary representation of the workflow state.
	Packet marshalkit.Packet
}

// SnapshotRepository is an interface for reading and writing workflow
// instance snapshots.
type SnapshotRepository interface {
	// LoadSnapshot loads the snapshot with the given source ID.
	//
	// ok is false if no snapshot has been recorded under id.
	LoadSnapshot(ctx context.Context, id string) (_ Snapshot, ok bool, _ error)

	// SaveSnapshot creates or replaces the snapshot stored under
	// s.SourceID. The write is atomic at the granularity of the source ID;
	// a reader never observes a partially-written snapshot.
	SaveSnapshot(ctx context.Context, s Snapshot) error

	// RemoveSnapshot removes the snapshot with the given source ID, if it
	// exists.
	RemoveSnapshot(ctx context.Context, id string) error
}
