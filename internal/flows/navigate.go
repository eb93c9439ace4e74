package flows

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCheckAuthTimeout is recorded when CheckAuth does not finish in time.
var ErrCheckAuthTimeout = errors.New("check auth timed out")

// ErrCheckAuthPanic is recorded when CheckAuth panics.
var ErrCheckAuthPanic = errors.New("check auth panicked")

// NavigateOutcome is the flow-level decision; the root package maps it to its
// public Outcome.
type NavigateOutcome int

const (
	NavigateAllow NavigateOutcome = iota
	NavigateRedirectLogin
	NavigateRedirectLanding
)

// AuthSnapshot is the subset of auth state the decision reads.
type AuthSnapshot struct {
	Ready      bool
	LoggedIn   bool
	TokenValid bool
}

// NavigateTarget carries the access flags of the resolved target.
type NavigateTarget struct {
	Name         string
	RequiresAuth bool
	GuestOnly    bool
}

// NavigateDeps captures the auth store operations the flow calls.
type NavigateDeps struct {
	Snapshot             func() AuthSnapshot
	CheckAuth            func(ctx context.Context) error
	HandleSessionExpired func(ctx context.Context, targetName string) error
	CheckAuthTimeout     time.Duration
}

// NavigateResult is the outcome plus what happened on the way there.
type NavigateResult struct {
	Outcome        NavigateOutcome
	Snapshot       AuthSnapshot
	CheckedAuth    bool
	CheckAuthErr   error
	SessionExpired bool
	ExpireErr      error
}

// Decide is the pure decision over a target and an auth snapshot.
func Decide(target NavigateTarget, snap AuthSnapshot) NavigateOutcome {
	valid := snap.LoggedIn && snap.TokenValid
	switch {
	case target.RequiresAuth && !valid:
		return NavigateRedirectLogin
	case target.RequiresAuth:
		return NavigateAllow
	case target.GuestOnly && valid:
		return NavigateRedirectLanding
	default:
		return NavigateAllow
	}
}

// RunNavigate makes sure auth state is loaded, decides, and runs the
// session-expired side effect for denied navigations. It always returns a
// result: a failing, hanging, or panicking CheckAuth leaves the session
// treated as logged out for this navigation. In that case the credentials are
// unknown rather than expired, so HandleSessionExpired is not called and the
// stored login survives for the next attempt.
func RunNavigate(ctx context.Context, target NavigateTarget, deps NavigateDeps) NavigateResult {
	var res NavigateResult

	snap := deps.Snapshot()
	if !snap.Ready {
		res.CheckedAuth = true
		res.CheckAuthErr = runCheckAuth(ctx, deps.CheckAuth, deps.CheckAuthTimeout)
		snap = deps.Snapshot()
		if res.CheckAuthErr != nil {
			snap = AuthSnapshot{Ready: true}
		}
	}
	res.Snapshot = snap

	res.Outcome = Decide(target, snap)
	if res.Outcome == NavigateRedirectLogin && res.CheckAuthErr == nil && deps.HandleSessionExpired != nil {
		res.SessionExpired = true
		res.ExpireErr = deps.HandleSessionExpired(ctx, target.Name)
	}

	return res
}

func runCheckAuth(ctx context.Context, check func(context.Context) error, timeout time.Duration) error {
	if check == nil {
		return nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrCheckAuthPanic, r)
			}
		}()
		done <- check(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrCheckAuthTimeout
		}
		return ctx.Err()
	}
}
