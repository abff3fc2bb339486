package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/client/client"
	"github.com/dmitrijs2005/cuponcode/internal/common"
)

// Purpose tells the backend which OTP is being verified.
type Purpose string

const (
	PurposeRegistration   Purpose = "registration"
	PurposeForgotPassword Purpose = "forgot_password"
)

// State is the position of a flow in its state machine.
type State int

const (
	StateIdle State = iota
	StateSubmitted
	StateAwaitingOTP
	StateVerifying
	StateAwaitingNewPassword
	StateResetting
	StateReset
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitted:
		return "submitted"
	case StateAwaitingOTP:
		return "awaiting_otp"
	case StateVerifying:
		return "verifying"
	case StateAwaitingNewPassword:
		return "awaiting_new_password"
	case StateResetting:
		return "resetting"
	case StateReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Next tells the presentation layer what to show after a step.
type Next int

const (
	// NextNone keeps the current view.
	NextNone Next = iota
	// NextLogin routes to the login view.
	NextLogin
	// NextNewPassword asks for the new password.
	NextNewPassword
)

// otpChallenge is a pending verification: one email and purpose, a resend
// deadline and the digit slots being typed.
type otpChallenge struct {
	email    string
	purpose  Purpose
	resendAt time.Time
	slots     []rune
	focus     int
	cancelled bool
}

func newChallenge(email string, purpose Purpose, length int) *otpChallenge {
	return &otpChallenge{email: email, purpose: purpose, slots: make([]rune, length)}
}

// cancel is called by AuthService under its own lock.
func (c *otpChallenge) cancel() { c.cancelled = true }

func (c *otpChallenge) code() string {
	var b strings.Builder
	for _, r := range c.slots {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c *otpChallenge) clearSlots() {
	for i := range c.slots {
		c.slots[i] = 0
	}
	c.focus = 0
}

// flow holds what registration and forgot-password share: the state, the
// challenge and the OTP steps. Steps are sequential; the lock is released
// while the bridge call is in flight and busy guards re-entry.
type flow struct {
	auth    *AuthService
	purpose Purpose

	mu    sync.Mutex
	state State
	busy  bool
	gen   uint64
	ch    *otpChallenge
	email string
	// verified is the accepted code, kept for the reset call after the
	// challenge itself is released.
	verified string
}

// State returns the current state.
func (f *flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncSupersededLocked()
	return f.state
}

// Email returns the address the flow was submitted with.
func (f *flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// syncSupersededLocked drops back to Idle when another flow has taken the
// pending slot.
func (f *flow) syncSupersededLocked() {
	if f.ch == nil {
		return
	}
	f.auth.mu.Lock()
	cancelled := f.ch.cancelled
	f.auth.mu.Unlock()
	if cancelled {
		f.ch = nil
		f.state = StateIdle
		f.gen++
	}
}

// begin enters a step. want lists the states the step may start from.
func (f *flow) begin(next State, want ...State) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.busy {
		return 0, ErrStepInProgress
	}
	f.syncSupersededLocked()

	allowed := false
	for _, s := range want {
		if f.state == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return 0, ErrInvalidState
	}

	f.busy = true
	f.state = next
	return f.gen, nil
}

// finish leaves a step. It reports false when the flow was cancelled in
// the meantime, in which case the result must be discarded.
func (f *flow) finish(gen uint64) bool {
	f.busy = false
	if gen != f.gen {
		return false
	}
	f.syncSupersededLocked()
	return gen == f.gen
}

// openLocked starts a fresh challenge for email. Callers hold f.mu.
func (f *flow) openLocked(email string) {
	ch := newChallenge(email, f.purpose, f.auth.v.OTPLength())
	ch.resendAt = f.auth.clock.Now().Add(f.auth.cooldown)
	f.auth.issue(ch)
	f.ch = ch
	f.email = email
	f.state = StateAwaitingOTP
}

// Cancel abandons the flow. A step still waiting for the backend has its
// result discarded.
func (f *flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ch != nil {
		f.auth.release(f.ch)
		f.ch = nil
	}
	f.verified = ""
	f.state = StateIdle
	f.gen++
}

// ResendIn is how long until Resend is allowed; zero when it already is or
// no challenge is pending.
func (f *flow) ResendIn() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncSupersededLocked()
	if f.ch == nil {
		return 0
	}
	d := f.ch.resendAt.Sub(f.auth.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

// Slots returns the typed digits, empty slots as spaces, and the focused index.
func (f *flow) Slots() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ch == nil {
		return "", 0
	}
	out := make([]rune, len(f.ch.slots))
	for i, r := range f.ch.slots {
		if r == 0 {
			r = ' '
		}
		out[i] = r
	}
	return string(out), f.ch.focus
}

// TypeDigit enters r into the focused slot and moves focus forward.
// Non-digits are ignored. Filling the last slot submits the code.
func (f *flow) TypeDigit(ctx context.Context, r rune) (Next, error) {
	if r < '0' || r > '9' {
		return NextNone, nil
	}

	f.mu.Lock()
	f.syncSupersededLocked()
	if f.state != StateAwaitingOTP || f.ch == nil {
		f.mu.Unlock()
		return NextNone, ErrInvalidState
	}
	ch := f.ch
	ch.slots[ch.focus] = r
	last := ch.focus == len(ch.slots)-1
	if !last {
		ch.focus++
	}
	code := ch.code()
	f.mu.Unlock()

	if !last {
		return NextNone, nil
	}
	return f.SubmitOTP(ctx, code)
}

// Backspace clears the focused slot, or moves focus back when it is empty.
func (f *flow) Backspace() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateAwaitingOTP || f.ch == nil {
		return
	}
	ch := f.ch
	if ch.slots[ch.focus] != 0 {
		ch.slots[ch.focus] = 0
		return
	}
	if ch.focus > 0 {
		ch.focus--
	}
}

// Paste fills the slots from the first with a digits-only string. Other
// input is ignored. A paste that fills every slot submits the code.
func (f *flow) Paste(ctx context.Context, s string) (Next, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return NextNone, nil
	}

	f.mu.Lock()
	f.syncSupersededLocked()
	if f.state != StateAwaitingOTP || f.ch == nil {
		f.mu.Unlock()
		return NextNone, ErrInvalidState
	}
	ch := f.ch
	n := min(len(s), len(ch.slots))
	for i := 0; i < n; i++ {
		ch.slots[i] = rune(s[i])
	}
	ch.focus = n - 1
	full := len(s) >= len(ch.slots)
	code := ch.code()
	f.mu.Unlock()

	if !full {
		return NextNone, nil
	}
	return f.SubmitOTP(ctx, code)
}

// SubmitOTP verifies code. An incomplete code fails locally without
// calling the backend. A rejected code clears the slots.
func (f *flow) SubmitOTP(ctx context.Context, code string) (Next, error) {
	a := f.auth
	if err := a.v.OTP(code); err != nil {
		return NextNone, err
	}

	gen, err := f.begin(StateVerifying, StateAwaitingOTP)
	if err != nil {
		return NextNone, err
	}
	f.mu.Lock()
	email := f.email
	f.mu.Unlock()

	res := a.bridge.Call(ctx, client.ActionVerifyOTP, client.Payload{
		"email": email,
		"otp":   code,
		"type":  string(f.purpose),
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.finish(gen) {
		return NextNone, ErrCancelled
	}

	if !res.Success {
		f.state = StateAwaitingOTP
		f.ch.clearSlots()
		return NextNone, remoteError(client.ActionVerifyOTP, res, common.MsgInvalidOTP)
	}

	a.log.Info(ctx, "otp verified", "purpose", f.purpose)
	a.release(f.ch)
	f.ch = nil
	if f.purpose == PurposeForgotPassword {
		f.verified = code
		f.state = StateAwaitingNewPassword
		return NextNewPassword, nil
	}

	f.state = StateIdle
	return NextLogin, nil
}

// Resend asks for a new code. It is refused without a backend call until
// the cooldown has elapsed; success restarts the cooldown.
func (f *flow) Resend(ctx context.Context) error {
	a := f.auth

	f.mu.Lock()
	f.syncSupersededLocked()
	if !f.busy && f.state == StateAwaitingOTP && f.ch != nil && a.clock.Now().Before(f.ch.resendAt) {
		f.mu.Unlock()
		return ErrResendCooldown
	}
	f.mu.Unlock()

	// state stays AwaitingOTP during a resend
	gen, err := f.begin(StateAwaitingOTP, StateAwaitingOTP)
	if err != nil {
		return err
	}
	f.mu.Lock()
	email := f.email
	f.mu.Unlock()

	res := a.bridge.Call(ctx, client.ActionResendOTP, client.Payload{
		"email": email,
		"type":  string(f.purpose),
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.finish(gen) {
		return ErrCancelled
	}
	if !res.Success {
		return remoteError(client.ActionResendOTP, res, common.MsgResendFailed)
	}
	f.ch.resendAt = a.clock.Now().Add(a.cooldown)
	return nil
}
