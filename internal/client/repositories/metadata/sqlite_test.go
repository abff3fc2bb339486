package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/cuponcode/internal/dbx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const sessionJSON = `{"id":"u1","username":"abc","email":"a@b.com","role":"user","coins":100,"token":"tk_1","lastActivity":1}`

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// backends returns every Repository implementation so the shared contract
// is checked against each of them.
func backends(t *testing.T) map[string]Repository {
	t.Helper()
	_, rdb := setupRedis(t)
	return map[string]Repository{
		"sqlite": NewSQLiteRepository(setupDB(t)),
		"redis":  NewRedisRepository(rdb, "cuponcode:"),
	}
}

func TestRepository_Contract(t *testing.T) {
	ctx := context.Background()

	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := r.Get(ctx, "cuponcode_session")
			require.NoError(t, err)
			require.Nil(t, v, "missing key is (nil, nil)")

			require.NoError(t, r.Set(ctx, "cuponcode_session", []byte(sessionJSON)))
			v, err = r.Get(ctx, "cuponcode_session")
			require.NoError(t, err)
			assert.JSONEq(t, sessionJSON, string(v))

			require.NoError(t, r.Set(ctx, "cuponcode_session", []byte(`{}`)))
			v, err = r.Get(ctx, "cuponcode_session")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{}`), v, "set overwrites")

			require.NoError(t, r.Set(ctx, "other", []byte{0xBB}))
			require.NoError(t, r.Delete(ctx, "other"))
			require.NoError(t, r.Delete(ctx, "other"), "delete is idempotent")
			v, err = r.Get(ctx, "other")
			require.NoError(t, err)
			require.Nil(t, v)
		})
	}
}

func TestRepository_Modify(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, r.Modify(ctx, "counter", func(old []byte) ([]byte, error) {
				assert.Nil(t, old)
				return []byte("1"), nil
			}))

			require.NoError(t, r.Modify(ctx, "counter", func(old []byte) ([]byte, error) {
				assert.Equal(t, []byte("1"), old)
				return []byte("2"), nil
			}))

			err := r.Modify(ctx, "counter", func([]byte) ([]byte, error) { return []byte("3"), boom })
			require.ErrorIs(t, err, boom)
			v, err := r.Get(ctx, "counter")
			require.NoError(t, err)
			assert.Equal(t, []byte("2"), v, "a failed modify writes nothing")

			require.NoError(t, r.Modify(ctx, "counter", func([]byte) ([]byte, error) { return nil, nil }))
			v, err = r.Get(ctx, "counter")
			require.NoError(t, err)
			assert.Nil(t, v, "nil result deletes")
		})
	}
}

func TestSQLite_ErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")

	require.ErrorContains(t, r.Set(ctx, "k", []byte("v")), "failed to set metadata[k]")
	require.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete metadata[k]")
	require.Error(t, r.Modify(ctx, "k", func(old []byte) ([]byte, error) { return old, nil }))
}

func TestSQLite_NullValueIsReturnedAsNil(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB);`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO metadata(key, value) VALUES ('bad', NULL);`)
	require.NoError(t, err)

	v, err := NewSQLiteRepository(db).Get(context.Background(), "bad")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSQLite_InsideTransaction(t *testing.T) {
	db := setupDB(t)
	db.SetMaxOpenConns(1)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := NewSQLiteRepository(tx)
		require.NoError(t, r.Set(ctx, "cuponcode_session", []byte(sessionJSON)))
		return errors.New("abort")
	})
	require.Error(t, err)

	v, err := NewSQLiteRepository(db).Get(ctx, "cuponcode_session")
	require.NoError(t, err)
	assert.Nil(t, v, "a rolled back write must not be visible")

	require.NoError(t, dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).Set(ctx, "cuponcode_session", []byte(sessionJSON))
	}))
	v, err = NewSQLiteRepository(db).Get(ctx, "cuponcode_session")
	require.NoError(t, err)
	assert.JSONEq(t, sessionJSON, string(v))

	// a repository bound to a transaction modifies inside it
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		require.NoError(t, NewSQLiteRepository(tx).Modify(ctx, "cuponcode_session", func([]byte) ([]byte, error) {
			return nil, nil
		}))
		return errors.New("abort")
	})
	require.Error(t, err)
	v, err = NewSQLiteRepository(db).Get(ctx, "cuponcode_session")
	require.NoError(t, err)
	assert.NotNil(t, v, "the delete was rolled back with the outer transaction")
}
