package sqlite

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/procession/internal/x/sqlx"
	"github.com/dogmatiq/procession/persistence"
)

// UpsertSnapshot creates or replaces a snapshot row.
func (driver) UpsertSnapshot(
	ctx context.Context,
	db *sql.DB,
	ak string,
	s persistence.Snapshot,
) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		db,
		`INSERT INTO process_snapshot (
			app_key,
			source_id,
			version,
			source_type,
			media_type,
			data
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) ON CONFLICT (app_key, source_id) DO UPDATE SET
			version = excluded.version,
			source_type = excluded.source_type,
			media_type = excluded.media_type,
			data = excluded.data`,
		ak,
		s.SourceID,
		s.Version,
		s.SourceType,
		s.Packet.MediaType,
		s.Packet.Data,
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
		WHERE app_key = $1
		AND source_id = $2`,
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
		WHERE app_key = $1
		AND source_id = $2`,
		ak,
		id,
	)

	return nil
}
