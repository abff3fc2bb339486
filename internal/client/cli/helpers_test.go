package cli

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/cuponcode/internal/client/client"
	"github.com/dmitrijs2005/cuponcode/internal/client/config"
	"github.com/dmitrijs2005/cuponcode/internal/client/output"
	"github.com/dmitrijs2005/cuponcode/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cuponcode/internal/client/session"
	"github.com/dmitrijs2005/cuponcode/internal/logging"
	"github.com/stretchr/testify/require"
)

// backend is a scripted server speaking the GET ?payload= protocol.
// Unscripted actions succeed with an empty body.
type backend struct {
	mu      sync.Mutex
	calls   []map[string]any
	replies map[string]string
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{replies: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.Unmarshal([]byte(r.URL.Query().Get("payload")), &payload); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		action, _ := payload["action"].(string)

		b.mu.Lock()
		b.calls = append(b.calls, payload)
		reply, ok := b.replies[action]
		b.mu.Unlock()

		if !ok {
			reply = `{"success":true}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) reply(action client.Action, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[string(action)] = body
}

func (b *backend) actions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.calls))
	for i, c := range b.calls {
		out[i], _ = c["action"].(string)
	}
	return out
}

func (b *backend) last(action client.Action) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.calls) - 1; i >= 0; i-- {
		if b.calls[i]["action"] == string(action) {
			return b.calls[i]
		}
	}
	return nil
}

type testApp struct {
	*App
	backend *backend
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

func newSQLiteRepo(t *testing.T) metadata.Repository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, client.RunMigrations(context.Background(), db))
	return metadata.NewSQLiteRepository(db)
}

func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()
	b, srv := newBackend(t)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIURL = srv.URL + "/exec"

	var out, errOut bytes.Buffer
	a, err := newApp(cfg, newSQLiteRepo(t), strings.NewReader(input),
		output.NewPrinter(&out, &errOut, false), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &testApp{App: a, backend: b, out: &out, errOut: &errOut}
}

// stubInputs feeds prompts from texts and password prompts from passwords,
// in order. Running out of input reads as EOF.
func stubInputs(t *testing.T, texts []string, passwords []string) {
	t.Helper()
	origST, origGP, origML := getSimpleText, getPassword, getMultiline

	next := func() (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		s := texts[0]
		texts = texts[1:]
		return s, nil
	}
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next() }
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next() }
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		pw := passwords[0]
		passwords = passwords[1:]
		return []byte(pw), nil
	}

	t.Cleanup(func() {
		getSimpleText, getPassword, getMultiline = origST, origGP, origML
	})
}

func (ta *testApp) loginAs(t *testing.T, role session.Role, coins int64) {
	t.Helper()
	require.NoError(t, ta.store.Set(context.Background(), session.Session{
		ID:       "u-1",
		Username: "alice",
		Email:    "alice@example.com",
		Role:     role,
		Coins:    coins,
		Token:    "server-token",
	}))
}

const loginReply = `{"success":true,"user":{"id":"u-1","username":"alice","email":"alice@example.com","role":"user","coins":100,"token":"server-token"}}`
