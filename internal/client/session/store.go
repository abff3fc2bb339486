package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/client/nav"
	"github.com/dmitrijs2005/cuponcode/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cuponcode/internal/common"
	"github.com/dmitrijs2005/cuponcode/internal/logging"
	"github.com/dmitrijs2005/cuponcode/internal/timex"
)

const (
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultCheckInterval = time.Minute
	DefaultDebounce      = time.Second
)

// Options tunes a Store. Zero values fall back to the defaults above, the
// system clock, a no-op navigator and a discarding logger.
type Options struct {
	Key           string
	IdleTimeout   time.Duration
	CheckInterval time.Duration
	Debounce      time.Duration
	Clock         timex.Clock
	Navigator     nav.Navigator
	Logger        logging.Logger
}

func (o *Options) setDefaults() {
	if o.Key == "" {
		o.Key = common.DefaultSessionKey
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = DefaultCheckInterval
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Clock == nil {
		o.Clock = timex.SystemClock{}
	}
	if o.Navigator == nil {
		o.Navigator = nav.Nop
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
}

// Store owns the persisted Session. Every read and write of the session
// record goes through it; the mutex makes each operation atomic with
// respect to the monitor goroutine.
type Store struct {
	mu          sync.Mutex
	repo        metadata.Repository
	key         string
	idleTimeout time.Duration
	clock       timex.Clock
	nav         nav.Navigator
	log         logging.Logger
	monitor     *Monitor
}

func NewStore(repo metadata.Repository, opts Options) *Store {
	opts.setDefaults()
	s := &Store{
		repo:        repo,
		key:         opts.Key,
		idleTimeout: opts.IdleTimeout,
		clock:       opts.Clock,
		nav:         opts.Navigator,
		log:         opts.Logger.With("component", "session"),
	}
	s.monitor = newMonitor(s, opts.Navigator, opts.Debounce, opts.CheckInterval, s.log)
	return s
}

func (s *Store) navigator() nav.Navigator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav
}

func (s *Store) nowMilli() int64 {
	return s.clock.Now().UnixMilli()
}

func (s *Store) expired(sess *Session) bool {
	idle := s.clock.Now().Sub(time.UnixMilli(sess.LastActivity))
	return idle > s.idleTimeout
}

// decode parses a stored record. Malformed, incomplete and idle-expired
// records come back nil with drop set.
func (s *Store) decode(ctx context.Context, data []byte) (sess *Session, drop bool) {
	if data == nil {
		return nil, false
	}

	sess = &Session{}
	if err := json.Unmarshal(data, sess); err != nil || sess.validate() != nil || sess.LastActivity <= 0 {
		s.log.Warn(ctx, "discarding malformed session record")
		return nil, true
	}

	if s.expired(sess) {
		s.log.Info(ctx, "session idle timeout", "user_id", sess.ID)
		return nil, true
	}

	return sess, false
}

// load reads the record. Missing, malformed, incomplete and idle-expired
// records all come back as (nil, nil); the last three are deleted.
// Callers hold s.mu.
func (s *Store) load(ctx context.Context) (*Session, error) {
	data, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	sess, drop := s.decode(ctx, data)
	if drop {
		return nil, s.clearLocked(ctx)
	}
	return sess, nil
}

// modifyLocked applies fn to the current session in one read-modify-write
// of the record, so a writer in another process cannot interleave. Nothing
// is written without a session; a record load would drop is deleted.
// Callers hold s.mu.
func (s *Store) modifyLocked(ctx context.Context, fn func(*Session) error) error {
	var dropped bool
	err := s.repo.Modify(ctx, s.key, func(old []byte) ([]byte, error) {
		sess, drop := s.decode(ctx, old)
		dropped = drop
		if sess == nil {
			return nil, nil
		}
		if err := fn(sess); err != nil {
			return nil, err
		}
		data, err := json.Marshal(sess)
		if err != nil {
			return nil, fmt.Errorf("failed to encode session: %w", err)
		}
		return data, nil
	})
	if dropped {
		s.monitor.Stop()
	}
	return err
}

func (s *Store) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.repo.Set(ctx, s.key, data)
}

func (s *Store) clearLocked(ctx context.Context) error {
	s.monitor.Stop()
	return s.repo.Delete(ctx, s.key)
}

// Set persists sess as the current session. A missing token is replaced
// by a locally generated one; LastActivity is stamped with the current
// time. The activity monitor is (re)started.
func (s *Store) Set(ctx context.Context, sess Session) error {
	if err := sess.validate(); err != nil {
		return err
	}
	if sess.Token == "" {
		sess.Token = newLocalToken()
	}
	sess.LastActivity = s.nowMilli()

	s.mu.Lock()
	err := s.save(ctx, &sess)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.monitor.Start()
	return nil
}

// Get returns the current session, or nil when there is none. An error is
// returned only when the storage itself fails.
func (s *Store) Get(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Credentials returns the user id and token to attach to backend calls,
// or empty strings without a session.
func (s *Store) Credentials(ctx context.Context) (userID, token string, err error) {
	sess, err := s.Get(ctx)
	if err != nil || sess == nil {
		return "", "", err
	}
	return sess.ID, sess.Token, nil
}

// Update merges p into the current session. It is a no-op without one.
// LastActivity is left as is.
func (s *Store) Update(ctx context.Context, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.modifyLocked(ctx, func(sess *Session) error {
		p.apply(sess)
		return sess.validate()
	})
}

// Touch marks the current session as active now. It is a no-op without one.
func (s *Store) Touch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.modifyLocked(ctx, func(sess *Session) error {
		sess.LastActivity = s.nowMilli()
		return nil
	})
}

// Clear deletes the session and stops the activity monitor.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

// Close stops the activity monitor and keeps the persisted session, so a
// later run can Resume it.
func (s *Store) Close() {
	s.monitor.Stop()
}

// Resume starts the activity monitor for a session persisted by an earlier
// run. It reports whether a session was found.
func (s *Store) Resume(ctx context.Context) bool {
	if !s.IsLoggedIn(ctx) {
		return false
	}
	s.monitor.Start()
	return true
}

func (s *Store) IsLoggedIn(ctx context.Context) bool {
	sess, err := s.Get(ctx)
	if err != nil {
		s.log.Error(ctx, "failed to read session", "error", err)
		return false
	}
	return sess != nil
}

func (s *Store) IsAdmin(ctx context.Context) bool {
	sess, err := s.Get(ctx)
	if err != nil {
		s.log.Error(ctx, "failed to read session", "error", err)
		return false
	}
	return sess != nil && sess.IsAdmin()
}

// Logout clears the session and sends the user to login.
func (s *Store) Logout(ctx context.Context) error {
	err := s.Clear(ctx)
	s.navigator().Navigate(ctx, nav.Destination{View: nav.ViewLogin})
	return err
}

// RequireAuth guards a protected view. Without a session it navigates to
// login, remembering returnTo, and reports false; otherwise it touches the
// session and reports true.
func (s *Store) RequireAuth(ctx context.Context, returnTo string) bool {
	if !s.IsLoggedIn(ctx) {
		s.navigator().Navigate(ctx, nav.Destination{View: nav.ViewLogin, ReturnTo: returnTo})
		return false
	}
	if err := s.Touch(ctx); err != nil {
		s.log.Error(ctx, "failed to touch session", "error", err)
	}
	return true
}

// RequireAdmin is RequireAuth plus a role check; non-admins are sent to the
// dashboard.
func (s *Store) RequireAdmin(ctx context.Context, returnTo string) bool {
	if !s.RequireAuth(ctx, returnTo) {
		return false
	}
	if !s.IsAdmin(ctx) {
		s.navigator().Navigate(ctx, nav.Destination{View: nav.ViewDashboard})
		return false
	}
	return true
}

// Activity reports a user interaction. Bursts are coalesced by the monitor
// into a single Touch.
func (s *Store) Activity() {
	s.monitor.Signal()
}
