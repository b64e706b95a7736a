package sqlite

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/procession/internal/x/sqlx"
)

// Driver is an implementation of sqlpersistence.Driver for SQLite.
var Driver = driver{}

type driver struct{}

// IsCompatibleWith returns nil if this driver can be used with db.
func (driver) IsCompatibleWith(ctx context.Context, db *sql.DB) error {
	// Verify that we're using SQLite and that $1-style placeholders are
	// supported.
	return db.QueryRowContext(
		ctx,
		`SELECT sqlite_version() WHERE 1 = $1`,
		1,
	).Err()
}

// CreateSchema creates the schema elements required by the SQLite driver.
func (driver) CreateSchema(ctx context.Context, db *sql.DB) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		db,
		`CREATE TABLE IF NOT EXISTS process_snapshot (
			app_key     TEXT NOT NULL,
			source_id   TEXT NOT NULL,
			version     INTEGER NOT NULL,
			source_type TEXT NOT NULL,
			media_type  TEXT NOT NULL,
			data        BLOB,

			PRIMARY KEY (app_key, source_id)
		)`,
	)

	return nil
}

// DropSchema removes the schema elements created by CreateSchema().
func (driver) DropSchema(ctx context.Context, db *sql.DB) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(ctx, db, `DROP TABLE IF EXISTS process_snapshot`)

	return nil
}
