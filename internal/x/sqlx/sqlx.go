package sqlx

import (
	"context"
	"database/sql"
)

// DB is an interface satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

var (
	_ DB = (*sql.DB)(nil)
	_ DB = (*sql.Tx)(nil)
	_ DB = (*sql.Conn)(nil)
)

// Recover recovers from a panic caused by Must().
//
// It is intended to be used in a defer statement. The error that caused the
// panic is assigned to *err.
func Recover(err *error) {
	if err == nil {
		panic("err must be a non-nil pointer")
	}

	switch v := recover().(type) {
	case PanicSentinel:
		*err = v.Cause
	case nil:
		return
	default:
		panic(v)
	}
}

// PanicSentinel is a wrapper value used to identify panics that are caused
// by Must().
type PanicSentinel struct {
	// Cause is the error that caused the panic.
	Cause error
}

// Must panics if err is non-nil.
func Must(err error) {
	if err != nil {
		panic(PanicSentinel{err})
	}
}

// Exec executes a statement on the given DB.
func Exec(
	ctx context.Context,
	db DB,
	query string,
	args ...interface{},
) sql.Result {
	res, err := db.ExecContext(ctx, query, args...)
	Must(err)
	return res
}
