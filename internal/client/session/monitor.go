package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/client/nav"
	"github.com/dmitrijs2005/cuponcode/internal/logging"
)

// Monitor runs two tasks on one goroutine: a debounced Touch driven by
// Signal, and a periodic check that forces a return to login once the
// session has expired. It only talks to the Store through its public
// operations.
type Monitor struct {
	store    *Store
	debounce time.Duration
	interval time.Duration
	log      logging.Logger
	activity chan struct{}

	mu     sync.Mutex
	nav    nav.Navigator
	cancel context.CancelFunc
	done   chan struct{}
}

func newMonitor(store *Store, n nav.Navigator, debounce, interval time.Duration, log logging.Logger) *Monitor {
	done := make(chan struct{})
	close(done)
	return &Monitor{
		store:    store,
		nav:      n,
		debounce: debounce,
		interval: interval,
		log:      log,
		activity: make(chan struct{}, 1),
		done:     done,
	}
}

func (m *Monitor) navigator() nav.Navigator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nav
}

// Start launches the monitor, replacing a running one.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go m.run(ctx, done)
}

// Stop asks the monitor to exit without waiting for it, so it may be
// called from the monitor's own goroutine. Use Done to wait.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Running reports whether a monitor has been started and not stopped.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Done is closed when the most recently started run has exited.
func (m *Monitor) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Signal records an interaction without blocking.
func (m *Monitor) Signal() {
	select {
	case m.activity <- struct{}{}:
	default:
	}
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	// store calls must outlive our own cancellation, which Clear triggers
	opCtx := context.WithoutCancel(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var (
		timer    *time.Timer
		debounce <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-m.activity:
			if timer == nil {
				timer = time.NewTimer(m.debounce)
			} else {
				timer.Stop()
				timer.Reset(m.debounce)
			}
			debounce = timer.C

		case <-debounce:
			debounce = nil
			if ctx.Err() != nil {
				return
			}
			if err := m.store.Touch(opCtx); err != nil {
				m.log.Error(opCtx, "failed to touch session", "error", err)
			}

		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if m.store.IsLoggedIn(opCtx) {
				continue
			}
			if err := m.store.Clear(opCtx); err != nil {
				m.log.Error(opCtx, "failed to clear expired session", "error", err)
			}
			m.navigator().Navigate(opCtx, nav.Destination{View: nav.ViewLogin, Expired: true})
			return
		}
	}
}
