package persistence

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

// DataStoreSet is a collection of data-stores, one per application.
type DataStoreSet struct {
	Provider Provider

	m      sync.Mutex
	stores map[string]DataStore
}

// Get returns the data-store for a given application.
//
// If the set already contains a data-store for the given application it is
// returned. Otherwise it is opened and added to the set. The caller is NOT
// responsible for closing the data-store.
func (s *DataStoreSet) Get(ctx context.Context, k string) (DataStore, error) {
	s.m.Lock()
	defer s.m.Unlock()

	if ds, ok := s.stores[k]; ok {
		return ds, nil
	}

	ds, err := s.Provider.Open(ctx, k)
	if err != nil {
		return nil, err
	}

	if s.stores == nil {
		s.stores = map[string]DataStore{}
	}

	s.stores[k] = ds

	return ds, nil
}

// Close closes all data-stores in the set.
func (s *DataStoreSet) Close() error {
	s.m.Lock()
	defer s.m.Unlock()

	stores := s.stores
	s.stores = nil

	var err error
	for _, ds := range stores {
		err = multierr.Append(
			err,
			ds.Close(),
		)
	}

	return err
}
