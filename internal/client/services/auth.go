// Package services contains the CuponCode client workflows. This file
// defines the authentication service: registration and password reset
// with OTP verification, login and change password.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/client/client"
	"github.com/dmitrijs2005/cuponcode/internal/client/nav"
	"github.com/dmitrijs2005/cuponcode/internal/client/session"
	"github.com/dmitrijs2005/cuponcode/internal/client/validate"
	"github.com/dmitrijs2005/cuponcode/internal/common"
	"github.com/dmitrijs2005/cuponcode/internal/logging"
	"github.com/dmitrijs2005/cuponcode/internal/timex"
)

const DefaultResendCooldown = 60 * time.Second

// SessionStore is the subset of session.Store used by the services.
type SessionStore interface {
	Get(ctx context.Context) (*session.Session, error)
	Set(ctx context.Context, s session.Session) error
	Update(ctx context.Context, p session.Patch) error
	IsAdmin(ctx context.Context) bool
}

type AuthOptions struct {
	ResendCooldown time.Duration
	Clock          timex.Clock
	Logger         logging.Logger
}

// AuthService creates authentication flows and runs the single-step
// operations. At most one OTP challenge is pending per service: opening a
// new one cancels the previous.
type AuthService struct {
	bridge   client.Bridge
	sessions SessionStore
	v        *validate.Validator
	cooldown time.Duration
	clock    timex.Clock
	log      logging.Logger

	mu      sync.Mutex
	pending *otpChallenge
}

func NewAuthService(bridge client.Bridge, sessions SessionStore, v *validate.Validator, opts AuthOptions) *AuthService {
	if opts.ResendCooldown <= 0 {
		opts.ResendCooldown = DefaultResendCooldown
	}
	if opts.Clock == nil {
		opts.Clock = timex.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &AuthService{
		bridge:   bridge,
		sessions: sessions,
		v:        v,
		cooldown: opts.ResendCooldown,
		clock:    opts.Clock,
		log:      opts.Logger.With("component", "auth"),
	}
}

// issue makes ch the pending challenge, cancelling any other.
func (a *AuthService) issue(ch *otpChallenge) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != nil && a.pending != ch {
		a.pending.cancel()
	}
	a.pending = ch
}

// release drops ch if it is still the pending challenge.
func (a *AuthService) release(ch *otpChallenge) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == ch {
		a.pending = nil
	}
}

// Pending reports the email and purpose of the pending challenge, if any.
func (a *AuthService) Pending() (email string, purpose Purpose, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return "", "", false
	}
	return a.pending.email, a.pending.purpose, true
}

// NewRegistration starts a registration attempt.
func (a *AuthService) NewRegistration() *RegistrationFlow {
	return &RegistrationFlow{flow: flow{auth: a, purpose: PurposeRegistration}}
}

// NewForgotPassword starts a password reset attempt.
func (a *AuthService) NewForgotPassword() *ForgotPasswordFlow {
	return &ForgotPasswordFlow{flow: flow{auth: a, purpose: PurposeForgotPassword}}
}

// Login authenticates and stores the returned identity. The destination
// is the admin view for administrators, otherwise returnTo or the
// dashboard.
func (a *AuthService) Login(ctx context.Context, emailOrUsername, password, returnTo string) (nav.Destination, error) {
	emailOrUsername = strings.TrimSpace(emailOrUsername)
	if err := a.v.Required(emailOrUsername, password); err != nil {
		return nav.Destination{}, err
	}

	res := a.bridge.Call(ctx, client.ActionLogin, client.Payload{
		"emailOrUsername": emailOrUsername,
		"password":        password,
	})
	if !res.Success {
		return nav.Destination{}, remoteError(client.ActionLogin, res, common.MsgInvalidCredentials)
	}

	var user session.Session
	if err := res.Decode("user", &user); err != nil {
		a.log.Error(ctx, "login response without usable user", "error", err)
		return nav.Destination{}, &RemoteError{Action: client.ActionLogin, Message: common.MsgInvalidResponse}
	}
	if err := a.sessions.Set(ctx, user); err != nil {
		a.log.Error(ctx, "failed to store session", "error", err)
		return nav.Destination{}, &RemoteError{Action: client.ActionLogin, Message: common.MsgInvalidResponse}
	}

	a.log.Info(ctx, "logged in", "user_id", user.ID)
	switch {
	case user.IsAdmin():
		return nav.Destination{View: nav.ViewAdmin}, nil
	case returnTo != "":
		return nav.Destination{View: nav.View(strings.TrimPrefix(returnTo, "/"))}, nil
	default:
		return nav.Destination{View: nav.ViewDashboard}, nil
	}
}

// PasswordChangeForm holds the change-password inputs. A successful
// change zeroes it.
type PasswordChangeForm struct {
	Current string
	New     string
	Confirm string
}

func (f *PasswordChangeForm) reset() {
	*f = PasswordChangeForm{}
}

// ChangePassword changes the password of the logged-in user. The form is
// left untouched on failure.
func (a *AuthService) ChangePassword(ctx context.Context, form *PasswordChangeForm) error {
	if err := a.v.Required(form.Current, form.New, form.Confirm); err != nil {
		return err
	}
	if err := a.v.Password(form.New); err != nil {
		return err
	}
	if err := a.v.Match(form.New, form.Confirm, common.MsgNewPasswordMismatch); err != nil {
		return err
	}

	res := a.bridge.Call(ctx, client.ActionChangePassword, client.Payload{
		"currentPassword": form.Current,
		"newPassword":     form.New,
	})
	if !res.Success {
		return remoteError(client.ActionChangePassword, res, common.MsgChangePasswordFailed)
	}

	form.reset()
	return nil
}
