package services

import (
	"errors"

	"github.com/dmitrijs2005/cuponcode/internal/client/client"
)

var (
	// ErrResendCooldown is returned by Resend while the cooldown is running.
	ErrResendCooldown = errors.New("resend is not available yet")
	// ErrInvalidState is returned when a step is called out of order.
	ErrInvalidState = errors.New("step not allowed in current state")
	// ErrStepInProgress is returned when a flow step is called while the
	// previous one is still waiting for the backend.
	ErrStepInProgress = errors.New("previous step still in progress")
	// ErrCancelled is returned for a step whose flow was cancelled or
	// superseded while the backend call was in flight.
	ErrCancelled = errors.New("flow cancelled")
)

// RemoteError is a failure reported through the bridge: a backend
// rejection, a transport problem or an expired session. Its text is the
// message to show the user.
type RemoteError struct {
	Action             client.Action
	Message            string
	SessionInvalidated bool
}

func (e *RemoteError) Error() string { return e.Message }

// remoteError converts a failed result, using def when the backend gave no reason.
func remoteError(action client.Action, res *client.Result, def string) *RemoteError {
	return &RemoteError{
		Action:             action,
		Message:            res.ErrorOr(def),
		SessionInvalidated: res.SessionInvalidated,
	}
}
