package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/cuponcode/internal/client/client"
	"github.com/dmitrijs2005/cuponcode/internal/common"
)

// RegistrationForm holds the sign-up inputs. ReferralCode is optional.
type RegistrationForm struct {
	Email        string
	Username     string
	Password     string
	Confirm      string
	ReferralCode string
}

// RegistrationFlow is one sign-up attempt:
// Idle -> Submitted -> AwaitingOTP -> Idle (route to login).
type RegistrationFlow struct {
	flow
}

// Submit validates the form and registers the account. On success the
// flow waits for the emailed code.
func (r *RegistrationFlow) Submit(ctx context.Context, form RegistrationForm) error {
	a := r.auth
	email := strings.TrimSpace(form.Email)
	username := strings.TrimSpace(form.Username)

	if err := a.v.Required(email, username, form.Password, form.Confirm); err != nil {
		return err
	}
	if err := a.v.Email(email); err != nil {
		return err
	}
	if err := a.v.Username(username); err != nil {
		return err
	}
	if err := a.v.Password(form.Password); err != nil {
		return err
	}
	if err := a.v.Match(form.Password, form.Confirm, common.MsgPasswordsMismatch); err != nil {
		return err
	}

	gen, err := r.begin(StateSubmitted, StateIdle)
	if err != nil {
		return err
	}

	res := a.bridge.Call(ctx, client.ActionRegister, client.Payload{
		"email":        email,
		"username":     username,
		"password":     form.Password,
		"referralCode": strings.TrimSpace(form.ReferralCode),
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finish(gen) {
		return ErrCancelled
	}
	if !res.Success {
		r.state = StateIdle
		return remoteError(client.ActionRegister, res, common.MsgRegistrationFailed)
	}

	a.log.Info(ctx, "registration submitted, awaiting otp")
	r.openLocked(email)
	return nil
}
