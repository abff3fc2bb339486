package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/client/client"
	"github.com/dmitrijs2005/cuponcode/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cuponcode/internal/client/session"
	"github.com/dmitrijs2005/cuponcode/internal/client/validate"
	"github.com/dmitrijs2005/cuponcode/internal/timex"
	"github.com/stretchr/testify/require"
)

type call struct {
	Action  client.Action
	Payload client.Payload
}

// fakeBridge answers calls from a per-action script; unscripted actions
// succeed with an empty body. A non-nil gate blocks every call until it
// is closed.
type fakeBridge struct {
	mu      sync.Mutex
	calls   []call
	replies map[client.Action][]*client.Result
	gate    chan struct{}
	entered chan struct{}
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{replies: map[client.Action][]*client.Result{}}
}

func (b *fakeBridge) Call(_ context.Context, action client.Action, payload client.Payload) *client.Result {
	b.mu.Lock()
	b.calls = append(b.calls, call{Action: action, Payload: payload})
	var res *client.Result
	if q := b.replies[action]; len(q) > 0 {
		res, b.replies[action] = q[0], q[1:]
	}
	gate, entered := b.gate, b.entered
	b.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if res == nil {
		return &client.Result{Success: true, Fields: map[string]json.RawMessage{"success": json.RawMessage("true")}}
	}
	return res
}

func (b *fakeBridge) reply(action client.Action, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		panic(err)
	}
	res := &client.Result{Fields: fields}
	_ = json.Unmarshal(fields["success"], &res.Success)
	_ = json.Unmarshal(fields["error"], &res.Error)
	b.replies[action] = append(b.replies[action], res)
}

func (b *fakeBridge) replyResult(action client.Action, res *client.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[action] = append(b.replies[action], res)
}

func (b *fakeBridge) block() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gate = make(chan struct{})
	b.entered = make(chan struct{}, 8)
}

func (b *fakeBridge) unblock() {
	b.mu.Lock()
	gate := b.gate
	b.gate, b.entered = nil, nil
	b.mu.Unlock()
	close(gate)
}

func (b *fakeBridge) all() []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]call(nil), b.calls...)
}

func (b *fakeBridge) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *fakeBridge) last() call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[len(b.calls)-1]
}

var epoch = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newSessionStore(t *testing.T, clock timex.Clock) *session.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, client.RunMigrations(context.Background(), db))

	s := session.NewStore(metadata.NewSQLiteRepository(db), session.Options{Clock: clock})
	t.Cleanup(func() { _ = s.Clear(context.Background()) })
	return s
}

type env struct {
	bridge   *fakeBridge
	clock    *timex.FakeClock
	sessions *session.Store
	auth     *AuthService
	market   *MarketService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := timex.NewFakeClock(epoch)
	bridge := newFakeBridge()
	sessions := newSessionStore(t, clock)
	v := validate.New(8, 6)
	return &env{
		bridge:   bridge,
		clock:    clock,
		sessions: sessions,
		auth:     NewAuthService(bridge, sessions, v, AuthOptions{Clock: clock}),
		market:   NewMarketService(bridge, sessions, v, nil),
	}
}

func validForm() RegistrationForm {
	return RegistrationForm{Email: "a@b.com", Username: "abc", Password: "password1", Confirm: "password1"}
}

// awaitingOTP returns a registration flow that already passed Submit.
func (e *env) awaitingOTP(t *testing.T) *RegistrationFlow {
	t.Helper()
	f := e.auth.NewRegistration()
	require.NoError(t, f.Submit(context.Background(), validForm()))
	require.Equal(t, StateAwaitingOTP, f.State())
	return f
}

func (e *env) login(t *testing.T, role session.Role, coins int64) {
	t.Helper()
	require.NoError(t, e.sessions.Set(context.Background(), session.Session{
		ID: "u-1", Username: "abc", Email: "a@b.com", Role: role, Coins: coins, Token: "tk_srv",
	}))
}
