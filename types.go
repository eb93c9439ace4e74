package navguard

import (
	"context"

	"github.com/MrEthical07/navGuard/routes"
)

// AuthState is the part of the auth store the guard reads.
type AuthState struct {
	// AuthReady reports that the persisted token has been checked at least once.
	AuthReady bool
	// IsLoggedIn reports that a user session is active.
	IsLoggedIn bool
	// Token is the current access token, empty when logged out.
	Token string
	// IsTokenValid reports that Token is present and not expired.
	IsTokenValid bool
}

// Valid reports whether the state counts as an authenticated session.
func (s AuthState) Valid() bool {
	return s.IsLoggedIn && s.IsTokenValid
}

// AuthStore is the auth state consumed by the guard. Implementations must be
// safe for concurrent use; authstore.Store is the standard one.
type AuthStore interface {
	// Snapshot returns a consistent view of the state.
	Snapshot() AuthState
	// CheckAuth populates the state from persisted credentials.
	CheckAuth(ctx context.Context) error
	// HandleSessionExpired clears the session and surfaces at most one notice.
	// targetName is the name of the route whose navigation was denied.
	HandleSessionExpired(ctx context.Context, targetName string) error
}

// Outcome is the verdict of the guard for one navigation.
type Outcome int

const (
	// OutcomeAllow lets the navigation proceed to its target.
	OutcomeAllow Outcome = iota
	// OutcomeRedirectLogin sends an unauthenticated navigation to the login route.
	OutcomeRedirectLogin
	// OutcomeRedirectLanding sends an authenticated user away from a guest-only route.
	OutcomeRedirectLanding
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeRedirectLogin:
		return "redirect_login"
	case OutcomeRedirectLanding:
		return "redirect_landing"
	default:
		return "unknown"
	}
}

// Decision is the result of one [Engine.Navigate] call.
type Decision struct {
	Outcome Outcome
	// Target is the route the navigation resolved to, after redirect records.
	Target routes.Match
	// Source is the route being left, nil on the first navigation.
	Source *routes.Match
	// Destination is the path the client ends up on.
	Destination string
	// RedirectedFrom is the requested path when a redirect record was followed.
	RedirectedFrom string

	CheckedAuth    bool
	CheckAuthErr   error
	SessionExpired bool
	ExpireErr      error
}

// Redirected reports whether the client must be sent somewhere other than the
// path it asked for.
func (d Decision) Redirected() bool {
	return d.Outcome != OutcomeAllow || d.RedirectedFrom != ""
}

// Next is the continuation a router hook hands back: the zero value continues,
// Abort cancels the navigation, Path redirects.
type Next struct {
	Abort bool
	Path  string
}

// NextFunc receives the continuation of a hooked navigation.
type NextFunc func(Next)

// Hook is a before-each router hook.
type Hook func(ctx context.Context, to, from string, next NextFunc)
