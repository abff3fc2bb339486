// Package confirm implements the two-step confirmation used before
// irreversible actions such as a purchase: a request is shown, then
// resolved exactly once by the user.
package confirm

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrAlreadyResolved is returned when a decision is resolved a second time.
var ErrAlreadyResolved = errors.New("confirmation already resolved")

// Decision is a pending confirmation.
type Decision struct {
	ID      string
	Title   string
	Message string

	mu        sync.Mutex
	resolved  bool
	confirmed bool
	onConfirm func(ctx context.Context) error
}

// Request creates a pending confirmation. onConfirm runs once if the user
// confirms and never if they cancel.
func Request(title, message string, onConfirm func(ctx context.Context) error) *Decision {
	return &Decision{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		onConfirm: onConfirm,
	}
}

// Confirm resolves the decision positively and runs the continuation,
// returning its error.
func (d *Decision) Confirm(ctx context.Context) error {
	d.mu.Lock()
	if d.resolved {
		d.mu.Unlock()
		return ErrAlreadyResolved
	}
	d.resolved, d.confirmed = true, true
	fn := d.onConfirm
	d.onConfirm = nil
	d.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Cancel resolves the decision negatively.
func (d *Decision) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.resolved {
		return ErrAlreadyResolved
	}
	d.resolved = true
	d.onConfirm = nil
	return nil
}

// Resolved reports whether the decision was resolved and how.
func (d *Decision) Resolved() (resolved, confirmed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolved, d.confirmed
}
