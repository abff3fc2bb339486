package client

import "context"

// Bridge sends one action to the backend and reports its outcome.
type Bridge interface {
	Call(ctx context.Context, action Action, payload Payload) *Result
}

// SessionStore is the part of the session store the bridge needs: the
// identity attached to every call, and the ability to drop it when the
// backend reports it expired.
type SessionStore interface {
	Credentials(ctx context.Context) (userID, token string, err error)
	Clear(ctx context.Context) error
}
