package bboltx

import (
	"context"
	"os"

	"github.com/dogmatiq/linger"
	"go.etcd.io/bbolt"
)

// Open opens a BoltDB database, honoring the deadline of ctx while
// acquiring the file lock.
func Open(
	ctx context.Context,
	path string,
	mode os.FileMode,
	opts *bbolt.Options,
) (*bbolt.DB, error) {
	if mode == 0 {
		mode = 0600
	}

	if timeout, ok := linger.FromContextDeadline(ctx); ok {
		if opts == nil {
			opts = &bbolt.Options{}
		}

		if opts.Timeout == 0 || timeout < opts.Timeout {
			opts.Timeout = timeout
		}
	}

	return bbolt.Open(path, mode, opts)
}

// View executes fn within the context of a read-only transaction,
// propagating panics raised via Must() as errors.
func View(db *bbolt.DB, fn func(tx *bbolt.Tx)) {
	Must(
		db.View(
			func(tx *bbolt.Tx) (err error) {
				defer Recover(&err)
				fn(tx)
				return nil
			},
		),
	)
}

// Update executes fn within the context of a read-write transaction,
// propagating panics raised via Must() as errors.
func Update(db *bbolt.DB, fn func(tx *bbolt.Tx)) {
	Must(
		db.Update(
			func(tx *bbolt.Tx) (err error) {
				defer Recover(&err)
				fn(tx)
				return nil
			},
		),
	)
}
