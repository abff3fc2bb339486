package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cuponcode/internal/dbx"
)

// SQLiteRepository stores records in the metadata table created by the
// client migrations.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

// Modify runs the read and the write in one transaction. A repository
// already bound to a transaction joins it.
func (r *SQLiteRepository) Modify(ctx context.Context, key string, fn ModifyFunc) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return r.modify(ctx, key, fn)
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).modify(ctx, key, fn)
	})
}

func (r *SQLiteRepository) modify(ctx context.Context, key string, fn ModifyFunc) error {
	old, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	value, err := fn(old)
	if err != nil {
		return err
	}
	if value == nil {
		return r.Delete(ctx, key)
	}
	return r.Set(ctx, key, value)
}
