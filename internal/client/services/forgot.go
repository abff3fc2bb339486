package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/cuponcode/internal/client/client"
	"github.com/dmitrijs2005/cuponcode/internal/common"
)

// ForgotPasswordFlow is one password reset attempt:
// Idle -> Submitted -> AwaitingOTP -> AwaitingNewPassword -> Reset.
type ForgotPasswordFlow struct {
	flow
}

// Submit requests a reset code for email.
func (f *ForgotPasswordFlow) Submit(ctx context.Context, email string) error {
	a := f.auth
	email = strings.TrimSpace(email)
	if err := a.v.Email(email); err != nil {
		return err
	}

	gen, err := f.begin(StateSubmitted, StateIdle)
	if err != nil {
		return err
	}

	res := a.bridge.Call(ctx, client.ActionForgotPassword, client.Payload{"email": email})

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.finish(gen) {
		return ErrCancelled
	}
	if !res.Success {
		f.state = StateIdle
		return remoteError(client.ActionForgotPassword, res, common.MsgEmailNotFound)
	}

	f.openLocked(email)
	return nil
}

// SubmitNewPassword sets the new password using the code verified
// earlier. Failure keeps the flow waiting for another attempt.
func (f *ForgotPasswordFlow) SubmitNewPassword(ctx context.Context, newPassword, confirm string) (Next, error) {
	a := f.auth

	if f.State() != StateAwaitingNewPassword {
		return NextNone, ErrInvalidState
	}
	if err := a.v.Password(newPassword); err != nil {
		return NextNone, err
	}
	if err := a.v.Match(newPassword, confirm, common.MsgPasswordsMismatch); err != nil {
		return NextNone, err
	}

	gen, err := f.begin(StateResetting, StateAwaitingNewPassword)
	if err != nil {
		return NextNone, err
	}
	f.mu.Lock()
	email, otp := f.email, f.verified
	f.mu.Unlock()

	res := a.bridge.Call(ctx, client.ActionResetPassword, client.Payload{
		"email":       email,
		"otp":         otp,
		"newPassword": newPassword,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.finish(gen) {
		return NextNone, ErrCancelled
	}
	if !res.Success {
		f.state = StateAwaitingNewPassword
		return NextNone, remoteError(client.ActionResetPassword, res, common.MsgResetFailed)
	}

	a.log.Info(ctx, "password reset")
	f.verified = ""
	f.state = StateReset
	return NextLogin, nil
}
