// Package dbx holds the database/sql seam of the local stores: DBTX lets a
// repository run against either a pool or a transaction, and WithTx scopes
// a unit of work to one transaction.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the part of database/sql the metadata repository needs.
// *sql.DB, *sql.Conn and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn on a transactional handle and commits when fn succeeds.
// An error or panic from fn rolls back; the panic is rethrown. The metadata
// repository uses it so a session read and its rewrite see the same row:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return metadata.NewSQLiteRepository(tx).Modify(ctx, key, fn)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
