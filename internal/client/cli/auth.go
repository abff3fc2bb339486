package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cuponcode/internal/client/nav"
	"github.com/dmitrijs2005/cuponcode/internal/client/output"
	"github.com/dmitrijs2005/cuponcode/internal/client/services"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

var (
	errNoVerification = errors.New("no verification in progress")
	errVerifyFirst    = errors.New("reset code not verified")
)

func (a *App) prompt(label string) (string, error) {
	return getSimpleText(a.reader, label, a.printer.Writer())
}

func (a *App) password(label string) (string, error) {
	pw, err := getPassword(a.printer.Writer(), label)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Register prompts for the sign-up form. On success the emailed code is
// expected next, via verify.
func (a *App) Register(ctx context.Context) error {
	var (
		form services.RegistrationForm
		err  error
	)
	if form.Email, err = a.prompt("Email"); err != nil {
		return err
	}
	if form.Username, err = a.prompt("Username"); err != nil {
		return err
	}
	if form.Password, err = a.password("Password"); err != nil {
		return err
	}
	if form.Confirm, err = a.password("Confirm password"); err != nil {
		return err
	}
	if form.ReferralCode, err = a.prompt("Referral code (optional)"); err != nil {
		return err
	}

	f := a.auth.NewRegistration()
	if err := f.Submit(ctx, form); err != nil {
		return err
	}
	a.setOTP(f, nil)

	a.printer.Success("Registration successful! Please verify your email.")
	a.printer.Info("A %d-digit code was sent to %s. Enter it with 'verify'.", a.config.OTPLength, f.Email())
	return nil
}

// Forgot requests a reset code for an email address.
func (a *App) Forgot(ctx context.Context) error {
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}

	f := a.auth.NewForgotPassword()
	if err := f.Submit(ctx, email); err != nil {
		return err
	}
	a.setOTP(f, f)

	a.printer.Success("OTP sent to your email!")
	return nil
}

// setOTP makes f the flow that verify and resend act on. A reset whose code
// was already verified survives a new registration; a new forgot replaces it.
func (a *App) setOTP(f otpFlow, forgot *services.ForgotPasswordFlow) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.otp != nil && a.otp != f && a.otp.State() != services.StateAwaitingNewPassword {
		a.otp.Cancel()
	}
	if forgot != nil {
		if a.forgot != nil && a.forgot != forgot {
			a.forgot.Cancel()
		}
		a.forgot = forgot
	}
	a.otp = f
}

// doneOTP forgets f once it finished. Other flows are left alone.
func (a *App) doneOTP(f otpFlow) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.otp == f {
		a.otp = nil
	}
	if a.forgot != nil && otpFlow(a.forgot) == f {
		a.forgot = nil
	}
}

func (a *App) clearOTP() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.otp != nil {
		a.otp.Cancel()
	}
	a.otp = nil
	a.forgot = nil
}

func (a *App) pendingOTP() otpFlow {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.otp == nil || a.otp.State() != services.StateAwaitingOTP {
		return nil
	}
	return a.otp
}

// Verify submits the emailed code. A code given as an argument is pasted;
// otherwise it is prompted for and typed in digit by digit.
func (a *App) Verify(ctx context.Context, args []string) error {
	f := a.pendingOTP()
	if f == nil {
		return errNoVerification
	}

	var (
		next services.Next
		err  error
	)
	if len(args) > 0 {
		next, err = a.pasteOTP(ctx, f, args[0])
	} else {
		code, perr := a.prompt(fmt.Sprintf("Enter the %d-digit code", a.config.OTPLength))
		if perr != nil {
			return perr
		}
		next, err = a.typeOTP(ctx, f, code)
	}
	if err != nil {
		return err
	}

	switch next {
	case services.NextLogin:
		a.doneOTP(f)
		a.printer.Success("Email verified! Please login.")
		a.Navigate(ctx, nav.Destination{View: nav.ViewLogin})
	case services.NextNewPassword:
		a.printer.Success("Code verified. Set a new password with 'reset'.")
	}
	return nil
}

// clearSlots empties whatever an earlier partial entry left behind.
func (a *App) clearSlots(f otpFlow) {
	for range 2 * a.config.OTPLength {
		f.Backspace()
	}
}

func (a *App) pasteOTP(ctx context.Context, f otpFlow, code string) (services.Next, error) {
	a.clearSlots(f)
	next, err := f.Paste(ctx, code)
	if err != nil || next != services.NextNone {
		return next, err
	}
	// not a full code: let the verifier say what is wrong with it
	return f.SubmitOTP(ctx, strings.TrimSpace(code))
}

func (a *App) typeOTP(ctx context.Context, f otpFlow, code string) (services.Next, error) {
	a.clearSlots(f)
	var digits strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
		next, err := f.TypeDigit(ctx, r)
		if err != nil || next != services.NextNone {
			return next, err
		}
	}
	return f.SubmitOTP(ctx, digits.String())
}

// Resend asks for a new code once the cooldown allows it.
func (a *App) Resend(ctx context.Context) error {
	f := a.pendingOTP()
	if f == nil {
		return errNoVerification
	}

	if err := f.Resend(ctx); err != nil {
		if errors.Is(err, services.ErrResendCooldown) {
			a.printer.Warning("Resend available in %ds", resendWait(f))
			return nil
		}
		return err
	}
	a.printer.Success("OTP resent successfully!")
	return nil
}

func resendWait(f otpFlow) int {
	return int((f.ResendIn() + time.Second - 1) / time.Second)
}

// Reset sets the new password after the reset code was verified.
func (a *App) Reset(ctx context.Context) error {
	a.mu.Lock()
	f := a.forgot
	a.mu.Unlock()
	if f == nil || f.State() != services.StateAwaitingNewPassword {
		return errVerifyFirst
	}

	newPassword, err := a.password("New password")
	if err != nil {
		return err
	}
	confirm, err := a.password("Confirm new password")
	if err != nil {
		return err
	}

	next, err := f.SubmitNewPassword(ctx, newPassword, confirm)
	if err != nil {
		return err
	}
	if next == services.NextLogin {
		a.doneOTP(f)
		a.printer.Success("Password reset successful! Please login.")
		a.Navigate(ctx, nav.Destination{View: nav.ViewLogin})
	}
	return nil
}

// Login authenticates and moves to the view the login resolved to.
func (a *App) Login(ctx context.Context) error {
	user, err := a.prompt("Email or username")
	if err != nil {
		return err
	}
	pw, err := a.password("Password")
	if err != nil {
		return err
	}

	_, returnTo := a.currentView()
	dest, err := a.auth.Login(ctx, user, pw, returnTo)
	if err != nil {
		return err
	}

	a.clearOTP()
	a.printer.Success("Login successful!")
	a.Navigate(ctx, dest)
	return nil
}

// Passwd changes the password of the logged-in user.
func (a *App) Passwd(ctx context.Context) error {
	if !a.store.RequireAuth(ctx, "/profile") {
		return nil
	}

	form := &services.PasswordChangeForm{}
	var err error
	if form.Current, err = a.password("Current password"); err != nil {
		return err
	}
	if form.New, err = a.password("New password"); err != nil {
		return err
	}
	if form.Confirm, err = a.password("Confirm new password"); err != nil {
		return err
	}

	if err := a.auth.ChangePassword(ctx, form); err != nil {
		return err
	}
	a.printer.Success("Password changed successfully!")
	return nil
}

// Whoami prints the identity held by the session.
func (a *App) Whoami(ctx context.Context) error {
	if !a.store.RequireAuth(ctx, "/profile") {
		return nil
	}
	sess, err := a.store.Get(ctx)
	if err != nil || sess == nil {
		return err
	}

	t := output.NewTable(a.printer.Writer(), "Field", "Value")
	t.AddRow("ID", sess.ID)
	t.AddRow("Username", sess.Username)
	t.AddRow("Email", sess.Email)
	t.AddRow("Role", string(sess.Role))
	t.AddRow("Coins", fmt.Sprint(sess.Coins))
	return t.Render()
}

// Logout ends the session.
func (a *App) Logout(ctx context.Context) error {
	a.clearOTP()
	if err := a.store.Logout(ctx); err != nil {
		return err
	}
	a.printer.Success("Logged out")
	return nil
}

// report renders a command failure. Failures that ended the session were
// already announced by Navigate.
func (a *App) report(err error) {
	if err == nil {
		return
	}

	var re *services.RemoteError
	switch {
	case errors.As(err, &re) && re.SessionInvalidated:
		return
	case errors.Is(err, services.ErrStepInProgress):
		a.printer.Warning("Please wait, the previous step is still running")
	case errors.Is(err, services.ErrInvalidState):
		a.printer.Warning("That step is not available right now")
	case errors.Is(err, services.ErrCancelled):
		a.printer.Warning("Cancelled")
	case errors.Is(err, errUsage):
		a.printer.Warning("%s", err.Error())
	case errors.Is(err, errNoVerification):
		a.printer.Warning("No verification in progress. Use 'register' or 'forgot' first.")
	case errors.Is(err, errVerifyFirst):
		a.printer.Warning("Verify the emailed code first with 'verify'.")
	case errors.Is(err, errNotListed):
		a.printer.Warning("Coupon is not in the current listing. Run 'coupons' first.")
	default:
		a.printer.Error("%s", err.Error())
	}
}
