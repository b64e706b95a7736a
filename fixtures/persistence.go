package fixtures

import (
	"context"

	"github.com/dogmatiq/procession/persistence"
	"github.com/dogmatiq/procession/persistence/memorypersistence"
)

// ProviderStub is a test implementation of the persistence.Provider
// interface.
type ProviderStub struct {
	persistence.Provider

	OpenFunc func(context.Context, string) (persistence.DataStore, error)
}

// Open returns a data-store for a specific application.
func (p *ProviderStub) Open(ctx context.Context, k string) (persistence.DataStore, error) {
	if p.OpenFunc != nil {
		return p.OpenFunc(ctx, k)
	}

	if p.Provider != nil {
		ds, err := p.Provider.Open(ctx, k)
		if ds != nil {
			ds = &DataStoreStub{DataStore: ds}
		}
		return ds, err
	}

	return nil, nil
}

// DataStoreStub is a test implementation of the persistence.DataStore
// interface.
type DataStoreStub struct {
	persistence.DataStore

	SnapshotRepositoryFunc func() persistence.SnapshotRepository
	CloseFunc              func() error
}

// NewDataStoreStub returns a new data-store stub that uses an in-memory
// persistence provider.
func NewDataStoreStub() *DataStoreStub {
	p := &ProviderStub{
		Provider: &memorypersistence.Provider{},
	}

	ds, err := p.Open(context.Background(), "<app-key>")
	if err != nil {
		panic(err)
	}

	return ds.(*DataStoreStub)
}

// SnapshotRepository returns the application's workflow snapshot
// repository.
func (ds *DataStoreStub) SnapshotRepository() persistence.SnapshotRepository {
	if ds.SnapshotRepositoryFunc != nil {
		return ds.SnapshotRepositoryFunc()
	}

	if ds.DataStore != nil {
		r := ds.DataStore.SnapshotRepository()
		if r != nil {
			r = &SnapshotRepositoryStub{SnapshotRepository: r}
		}
		return r
	}

	return nil
}

// Close closes the data-store.
func (ds *DataStoreStub) Close() error {
	if ds.CloseFunc != nil {
		return ds.CloseFunc()
	}

	if ds.DataStore != nil {
		return ds.DataStore.Close()
	}

	return nil
}

// SnapshotRepositoryStub is a test implementation of the
// persistence.SnapshotRepository interface.
type SnapshotRepositoryStub struct {
	persistence.SnapshotRepository

	LoadSnapshotFunc   func(context.Context, string) (persistence.Snapshot, bool, error)
	SaveSnapshotFunc   func(context.Context, persistence.Snapshot) error
	RemoveSnapshotFunc func(context.Context, string) error
}

// NewSnapshotRepositoryStub returns a new snapshot repository stub backed
// by an in-memory persistence provider.
func NewSnapshotRepositoryStub() *SnapshotRepositoryStub {
	return NewDataStoreStub().SnapshotRepository().(*SnapshotRepositoryStub)
}

// LoadSnapshot loads the snapshot with the given source ID.
func (r *SnapshotRepositoryStub) LoadSnapshot(
	ctx context.Context,
	id string,
) (persistence.Snapshot, bool, error) {
	if r.LoadSnapshotFunc != nil {
		return r.LoadSnapshotFunc(ctx, id)
	}

	if r.SnapshotRepository != nil {
		return r.SnapshotRepository.LoadSnapshot(ctx, id)
	}

	return persistence.Snapshot{}, false, nil
}

// SaveSnapshot creates or replaces the snapshot stored under s.SourceID.
func (r *SnapshotRepositoryStub) SaveSnapshot(
	ctx context.Context,
	s persistence.Snapshot,
) error {
	if r.SaveSnapshotFunc != nil {
		return r.SaveSnapshotFunc(ctx, s)
	}

	if r.SnapshotRepository != nil {
		return r.SnapshotRepository.SaveSnapshot(ctx, s)
	}

	return nil
}

// RemoveSnapshot removes the snapshot with the given source ID, if it
// exists.
func (r *SnapshotRepositoryStub) RemoveSnapshot(
	ctx context.Context,
	id string,
) error {
	if r.RemoveSnapshotFunc != nil {
		return r.RemoveSnapshotFunc(ctx, id)
	}

	if r.SnapshotRepository != nil {
		return r.SnapshotRepository.RemoveSnapshot(ctx, id)
	}

	return nil
}
