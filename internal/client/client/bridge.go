package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/client/nav"
	"github.com/dmitrijs2005/cuponcode/internal/common"
	"github.com/dmitrijs2005/cuponcode/internal/logging"
	"golang.org/x/time/rate"
)

const (
	DefaultRequestTimeout = 30 * time.Second

	// maxBodyLogged caps how much of an unparseable body ends up in logs.
	maxBodyLogged = 200
)

type BridgeOptions struct {
	APIURL  string
	Timeout time.Duration
	// RequestsPerSecond limits outgoing calls; zero means unlimited.
	RequestsPerSecond float64
	// HTTPClient overrides the default client. Its Timeout is left alone.
	HTTPClient *http.Client
	Navigator  nav.Navigator
	Logger     logging.Logger
}

// HTTPBridge is the Bridge used against the real backend.
type HTTPBridge struct {
	endpoint *url.URL
	http     *http.Client
	limiter  *rate.Limiter
	sessions SessionStore
	nav      nav.Navigator
	log      logging.Logger
}

// NewHTTPBridge validates opts.APIURL and returns a ready bridge. sessions
// may be nil, in which case calls are sent anonymously.
func NewHTTPBridge(sessions SessionStore, opts BridgeOptions) (*HTTPBridge, error) {
	endpoint, err := url.Parse(opts.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", opts.APIURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultRequestTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	n := opts.Navigator
	if n == nil {
		n = nav.Nop
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &HTTPBridge{
		endpoint: endpoint,
		http:     hc,
		limiter:  limiter,
		sessions: sessions,
		nav:      n,
		log:      log.With("component", "bridge"),
	}, nil
}

// envelope merges payload with the action and, when a session exists, the
// caller identity. Identity fields win over same-named payload fields, and
// the action always wins.
func (b *HTTPBridge) envelope(ctx context.Context, action Action, payload Payload) map[string]any {
	env := make(map[string]any, len(payload)+3)
	for k, v := range payload {
		env[k] = v
	}
	env[common.FieldAction] = string(action)

	if b.sessions == nil {
		return env
	}
	userID, token, err := b.sessions.Credentials(ctx)
	if err != nil {
		b.log.Warn(ctx, "sending call without identity", "action", action, "error", err)
		return env
	}
	if userID != "" {
		env[common.FieldUserID] = userID
		env[common.FieldSessionToken] = token
	}
	return env
}

func (b *HTTPBridge) requestURL(env map[string]any) (string, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	u := *b.endpoint
	q := u.Query()
	q.Set(common.PayloadParam, string(data))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Call implements Bridge.
func (b *HTTPBridge) Call(ctx context.Context, action Action, payload Payload) *Result {
	log := b.log.With("action", action)

	if !action.Valid() {
		log.Warn(ctx, "refusing unknown action")
		return Failure(common.MsgUnknownAction)
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			log.Error(ctx, "throttled call abandoned", "error", err)
			return Failure(common.MsgNetworkError)
		}
	}

	target, err := b.requestURL(b.envelope(ctx, action, payload))
	if err != nil {
		// unencodable payload values never reach the wire
		log.Error(ctx, "failed to encode envelope", "error", err)
		return Failure(common.MsgNetworkError)
	}

	body, err := b.roundTrip(ctx, target)
	if err != nil {
		log.Error(ctx, "transport failure", "error", err)
		return Failure(common.MsgNetworkError)
	}

	res, err := parseResult(body)
	if err != nil {
		log.Error(ctx, "failed to parse response", "body", truncate(body, maxBodyLogged), "error", err)
		return Failure(common.MsgInvalidResponse)
	}

	if res.Error == common.SessionExpiredSentinel {
		return b.expire(ctx, log)
	}

	log.Debug(ctx, "call finished", "success", res.Success)
	return res
}

func (b *HTTPBridge) roundTrip(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (b *HTTPBridge) expire(ctx context.Context, log logging.Logger) *Result {
	log.Info(ctx, "backend reported session expired")
	if b.sessions != nil {
		if err := b.sessions.Clear(ctx); err != nil {
			log.Error(ctx, "failed to clear session", "error", err)
		}
	}
	b.nav.Navigate(ctx, nav.Destination{View: nav.ViewLogin, Expired: true})

	res := Failure(common.MsgSessionExpired)
	res.SessionInvalidated = true
	return res
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
