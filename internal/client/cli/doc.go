// Package cli provides the interactive CuponCode command-line client.
//
// It wires configuration, session storage (sqlite or Redis), the HTTP
// bridge to the backend and the auth and marketplace services, then runs
// a REPL. The App is the navigator of the core components: session expiry
// and login redirects become the current view shown in the prompt.
//
// Key features:
//   - Register / Forgot password with emailed code verification and resend
//   - Login / Logout / Change password, resuming a persisted session
//   - Browse coupons, buy with confirmation, upload, vault, wallet
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
