package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dogmatiq/procession/internal/x/sqlx"
	"github.com/dogmatiq/procession/persistence"
	"github.com/go-sql-driver/mysql"
)

// mysqlErrDupEntry is the MySQL error code for a duplicate key conflict.
//
// https://dev.mysql.com/doc/refman/8.0/en/server-error-reference.html#error_er_dup_entry
const mysqlErrDupEntry = 1062

// UpsertSnapshot creates or replaces a snapshot row.
func (driver) UpsertSnapshot(
	ctx context.Context,
	db *sql.DB,
	ak string,
	s persistence.Snapshot,
) (err error) {
	defer sqlx.Recover(&err)

	inserted, err := insertIgnore(
		ctx,
		db,
		`INSERT INTO process_snapshot SET
			app_key = ?,
			source_id = ?,
			version = ?,
			source_type = ?,
			media_type = ?,
			data = ?`,
		ak,
		s.SourceID,
		s.Version,
		s.SourceType,
		s.Packet.MediaType,
		s.Packet.Data,
	)
	if err != nil || inserted {
		return err
	}

	sqlx.Exec(
		ctx,
		db,
		`UPDATE process_snapshot SET
			version = ?,
			source_type = ?,
			media_type = ?,
			data = ?
		WHERE app_key = ?
		AND source_id = ?`,
		s.Version,
		s.SourceType,
		s.Packet.MediaType,
		s.Packet.Data,
		ak,
		s.SourceID,
	)

	return nil
}

// SelectSnapshot selects a snapshot row.
//
// ok is false if the row does not exist.
func (driver) SelectSnapshot(
	ctx context.Context,
	db *sql.DB,
	ak, id string,
) (persistence.Snapshot, bool, error) {
	row := db.QueryRowContext(
		ctx,
		`SELECT
			version,
			source_type,
			media_type,
			data
		FROM process_snapshot
		WHERE app_key = ?
		AND source_id = ?`,
		ak,
		id,
	)

	sn := persistence.Snapshot{
		SourceID: id,
	}

	err := row.Scan(
		&sn.Version,
		&sn.SourceType,
		&sn.Packet.MediaType,
		&sn.Packet.Data,
	)
	if err == sql.ErrNoRows {
		return persistence.Snapshot{}, false, nil
	}
	if err != nil {
		return persistence.Snapshot{}, false, err
	}

	return sn, true, nil
}

// DeleteSnapshot deletes a snapshot row, if it exists.
func (driver) DeleteSnapshot(
	ctx context.Context,
	db *sql.DB,
	ak, id string,
) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		db,
		`DELETE FROM process_snapshot
		WHERE app_key = ?
		AND source_id = ?`,
		ak,
		id,
	)

	return nil
}

// insertIgnore is a helper for running insert queries that ignore duplicate
// key conflicts.
//
// We don't use MySQL's INSERT IGNORE syntax, because it ignores far more
// errors than a duplicate key conflict.
//
// It returns true if the row was inserted, or false if it was ignored.
func insertIgnore(
	ctx context.Context,
	db sqlx.DB,
	query string,
	args ...interface{},
) (bool, error) {
	_, err := db.ExecContext(ctx, query, args...)
	if err == nil {
		return true, nil
	}

	var merr *mysql.MySQLError

	if errors.As(err, &merr) && merr.Number == mysqlErrDupEntry {
		return false, nil
	}

	return false, err
}
