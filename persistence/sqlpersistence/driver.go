package sqlpersistence

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/procession/persistence"
)

// Driver is used to interface with the underlying SQL database.
type Driver interface {
	// IsCompatibleWith returns nil if this driver can be used with db.
	IsCompatibleWith(ctx context.Context, db *sql.DB) error

	// CreateSchema creates any SQL schema elements required by the driver.
	CreateSchema(ctx context.Context, db *sql.DB) error

	// DropSchema removes any SQL schema elements created by
	// CreateSchema().
	DropSchema(ctx context.Context, db *sql.DB) error

	// UpsertSnapshot creates or replaces a snapshot row.
	UpsertSnapshot(
		ctx context.Context,
		db *sql.DB,
		ak string,
		s persistence.Snapshot,
	) error

	// SelectSnapshot selects a snapshot row.
	//
	// ok is false if the row does not exist.
	SelectSnapshot(
		ctx context.Context,
		db *sql.DB,
		ak, id string,
	) (_ persistence.Snapshot, ok bool, _ error)

	// DeleteSnapshot deletes a snapshot row, if it exists.
	DeleteSnapshot(
		ctx context.Context,
		db *sql.DB,
		ak, id string,
	) error
}
