package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/cuponcode/internal/client/client"
	"github.com/dmitrijs2005/cuponcode/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cuponcode/internal/timex"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func persistentBackends(t *testing.T) map[string]metadata.Repository {
	t.Helper()
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return map[string]metadata.Repository{
		"sqlite": metadata.NewSQLiteRepository(db),
		"redis":  metadata.NewRedisRepository(rdb, "cuponcode:"),
	}
}

func TestStore_SurvivesRestartOnRealBackends(t *testing.T) {
	ctx := context.Background()

	for name, repo := range persistentBackends(t) {
		t.Run(name, func(t *testing.T) {
			clock := timex.NewFakeClock(epoch)

			first := NewStore(repo, Options{Clock: clock})
			require.NoError(t, first.Set(ctx, sampleSession()))
			require.NoError(t, first.Update(ctx, CoinsPatch(40)))
			first.monitor.Stop()

			clock.Advance(10 * time.Minute)

			second := NewStore(repo, Options{Clock: clock})
			t.Cleanup(second.monitor.Stop)

			got, err := second.Get(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, int64(40), got.Coins)
			assert.Equal(t, "server-token", got.Token)

			clock.Advance(DefaultIdleTimeout)
			got, err = second.Get(ctx)
			require.NoError(t, err)
			assert.Nil(t, got)

			raw, err := repo.Get(ctx, "cuponcode_session")
			require.NoError(t, err)
			assert.Nil(t, raw)
		})
	}
}
