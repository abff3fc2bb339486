package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/client/nav"
	"github.com/dmitrijs2005/cuponcode/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cuponcode/internal/timex"
)

var errStorage = errors.New("storage down")

// memRepo is an in-memory metadata.Repository that counts writes.
type memRepo struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
	err  error
}

func newMemRepo() *memRepo {
	return &memRepo{data: map[string][]byte{}}
}

func (r *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	v, ok := r.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (r *memRepo) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sets++
	r.data[key] = append([]byte(nil), value...)
	return nil
}

func (r *memRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	delete(r.data, key)
	return nil
}

func (r *memRepo) Modify(_ context.Context, key string, fn metadata.ModifyFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	var old []byte
	if v, ok := r.data[key]; ok {
		old = append([]byte(nil), v...)
	}
	value, err := fn(old)
	if err != nil {
		return err
	}
	if value == nil {
		delete(r.data, key)
		return nil
	}
	r.sets++
	r.data[key] = append([]byte(nil), value...)
	return nil
}

func (r *memRepo) raw(key string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	return v, ok
}

func (r *memRepo) put(key string, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = []byte(value)
}

func (r *memRepo) setCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets
}

// navRecorder collects navigation requests.
type navRecorder struct {
	mu    sync.Mutex
	dests []nav.Destination
}

func (n *navRecorder) Navigate(_ context.Context, d nav.Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dests = append(n.dests, d)
}

func (n *navRecorder) all() []nav.Destination {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]nav.Destination(nil), n.dests...)
}

var epoch = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts Options) (*Store, *memRepo, *timex.FakeClock, *navRecorder) {
	t.Helper()
	repo := newMemRepo()
	clock := timex.NewFakeClock(epoch)
	rec := &navRecorder{}
	if opts.Clock == nil {
		opts.Clock = clock
	}
	opts.Navigator = rec
	s := NewStore(repo, opts)
	t.Cleanup(func() { s.monitor.Stop() })
	return s, repo, clock, rec
}

func sampleSession() Session {
	return Session{
		ID:       "u-1",
		Username: "abc",
		Email:    "a@b.com",
		Role:     RoleUser,
		Coins:    100,
		Token:    "server-token",
	}
}
