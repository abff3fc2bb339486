// Package nav describes where the presentation layer should go next.
// Core components emit a Destination instead of navigating themselves, so
// any front end (CLI, tests, a web shell) can decide how to react.
package nav

import (
	"context"
	"net/url"
)

// View names an entry point of the presentation layer.
type View string

const (
	ViewLogin     View = "login"
	ViewDashboard View = "dashboard"
	ViewAdmin     View = "admin"
)

// Destination is a navigation request.
type Destination struct {
	View View
	// Expired marks a forced return to login after the session ended.
	Expired bool
	// ReturnTo is where to go back to after a successful login.
	ReturnTo string
}

// String renders the destination as a web route,
// e.g. "login?expired=1" or "login?redirect=%2Fwallet".
func (d Destination) String() string {
	q := url.Values{}
	if d.Expired {
		q.Set("expired", "1")
	}
	if d.ReturnTo != "" {
		q.Set("redirect", d.ReturnTo)
	}
	if len(q) == 0 {
		return string(d.View)
	}
	return string(d.View) + "?" + q.Encode()
}

// Navigator receives navigation requests.
type Navigator interface {
	Navigate(ctx context.Context, d Destination)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, d Destination)

func (f NavigatorFunc) Navigate(ctx context.Context, d Destination) { f(ctx, d) }

// Nop ignores every request.
var Nop Navigator = NavigatorFunc(func(context.Context, Destination) {})
