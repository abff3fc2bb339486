package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/client/client"
	"github.com/dmitrijs2005/cuponcode/internal/client/config"
	"github.com/dmitrijs2005/cuponcode/internal/client/nav"
	"github.com/dmitrijs2005/cuponcode/internal/client/output"
	"github.com/dmitrijs2005/cuponcode/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cuponcode/internal/client/services"
	"github.com/dmitrijs2005/cuponcode/internal/client/session"
	"github.com/dmitrijs2005/cuponcode/internal/client/validate"
	"github.com/dmitrijs2005/cuponcode/internal/logging"
	"github.com/redis/go-redis/v9"
)

// App is the interactive client. It is also the navigator of every core
// component: destinations become the current view shown in the prompt.
type App struct {
	config  *config.Config
	store   *session.Store
	auth    *services.AuthService
	market  *services.MarketService
	printer *output.Printer
	reader  *bufio.Reader
	log     logging.Logger
	closers []func() error

	mu       sync.Mutex
	view     nav.View
	returnTo string
	otp      otpFlow
	forgot   *services.ForgotPasswordFlow
	listing  map[string]coupon
}

// otpFlow is what verify and resend need from a registration or a
// password reset in progress.
type otpFlow interface {
	State() services.State
	Email() string
	TypeDigit(ctx context.Context, r rune) (services.Next, error)
	Backspace()
	Paste(ctx context.Context, s string) (services.Next, error)
	SubmitOTP(ctx context.Context, code string) (services.Next, error)
	Resend(ctx context.Context) error
	ResendIn() time.Duration
	Cancel()
}

// NewApp opens the configured session storage and wires the client
// against standard input and output.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, os.Stderr)

	repo, closeRepo, err := openRepository(ctx, c)
	if err != nil {
		logger.Error(ctx, "error opening session storage", "backend", c.StorageBackend, "error", err)
		return nil, err
	}

	printer := output.NewPrinter(os.Stdout, os.Stderr, output.UseColors())
	a, err := newApp(c, repo, os.Stdin, printer, logger)
	if err != nil {
		_ = closeRepo()
		return nil, err
	}
	a.closers = append(a.closers, closeRepo)
	return a, nil
}

func openRepository(ctx context.Context, c *config.Config) (metadata.Repository, func() error, error) {
	switch c.StorageBackend {
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", c.RedisAddr, err)
		}
		return metadata.NewRedisRepository(rdb, c.RedisPrefix), rdb.Close, nil
	case config.StorageSQLite, "":
		db, err := client.InitDatabase(ctx, c.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return metadata.NewSQLiteRepository(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func newApp(c *config.Config, repo metadata.Repository, in io.Reader, p *output.Printer, logger logging.Logger) (*App, error) {
	a := &App{
		config:  c,
		printer: p,
		reader:  bufio.NewReader(in),
		log:     logger,
		view:    nav.ViewLogin,
	}

	a.store = session.NewStore(repo, session.Options{
		Key:           c.SessionKey,
		IdleTimeout:   c.IdleTimeout,
		CheckInterval: c.ActivityCheckInterval,
		Debounce:      c.ActivityDebounce,
		Navigator:     a,
		Logger:        logger,
	})

	bridge, err := client.NewHTTPBridge(a.store, client.BridgeOptions{
		APIURL:            c.APIURL,
		Timeout:           c.RequestTimeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Navigator:         a,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	v := validate.New(c.MinPasswordLength, c.OTPLength)
	a.auth = services.NewAuthService(bridge, a.store, v, services.AuthOptions{
		ResendCooldown: c.OTPResendCooldown,
		Logger:         logger,
	})
	a.market = services.NewMarketService(bridge, a.store, v, logger)
	return a, nil
}

// Navigate records the destination as the current view. Forced returns to
// login are announced.
func (a *App) Navigate(ctx context.Context, d nav.Destination) {
	a.mu.Lock()
	a.view = d.View
	a.returnTo = d.ReturnTo
	a.mu.Unlock()

	a.log.Debug(ctx, "navigate", "to", d.String())
	switch {
	case d.Expired:
		a.printer.Warning("Session expired. Please login again.")
	case d.View == nav.ViewLogin && d.ReturnTo != "":
		a.printer.Warning("Please login to continue")
	}
}

func (a *App) currentView() (nav.View, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view, a.returnTo
}

// Run resumes a persisted session if there is one and blocks in the REPL
// until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.printer.Info("Welcome to CuponCode CLI (type 'help' for commands)")
	if a.store.Resume(ctx) {
		if sess, err := a.store.Get(ctx); err == nil && sess != nil {
			a.printer.Info("Welcome back, %s", sess.Username)
			a.Navigate(ctx, homeOf(sess))
		}
	}

	runREPL(ctx, a, func() string { return a.status(ctx) }, a.reader)
}

// Close stops the activity monitor and releases the storage. The session
// itself stays persisted.
func (a *App) Close() error {
	a.store.Close()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) status(ctx context.Context) string {
	view, _ := a.currentView()
	sess, err := a.store.Get(ctx)
	if err != nil || sess == nil {
		return fmt.Sprintf("(%s)", view)
	}
	return fmt.Sprintf("(%s %s %d coins)", view, sess.Username, sess.Coins)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.store.IsLoggedIn(ctx)
}

func (a *App) isAdmin(ctx context.Context) bool {
	return a.store.IsAdmin(ctx)
}

func (a *App) activity() {
	a.store.Activity()
}

func homeOf(sess *session.Session) nav.Destination {
	if sess.IsAdmin() {
		return nav.Destination{View: nav.ViewAdmin}
	}
	return nav.Destination{View: nav.ViewDashboard}
}
