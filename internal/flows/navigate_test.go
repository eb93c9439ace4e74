package flows

import (
	"context"
	"errors"
	"testing"
	"time"
)

type navigateRecorder struct {
	snap       AuthSnapshot
	afterCheck AuthSnapshot
	checkErr   error
	checks     int
	expired    []string
}

func (r *navigateRecorder) deps(timeout time.Duration) NavigateDeps {
	return NavigateDeps{
		Snapshot: func() AuthSnapshot { return r.snap },
		CheckAuth: func(context.Context) error {
			r.checks++
			if r.checkErr != nil {
				return r.checkErr
			}
			r.snap = r.afterCheck
			return nil
		},
		HandleSessionExpired: func(_ context.Context, name string) error {
			r.expired = append(r.expired, name)
			return nil
		},
		CheckAuthTimeout: timeout,
	}
}

func TestDecideMatrix(t *testing.T) {
	valid := AuthSnapshot{Ready: true, LoggedIn: true, TokenValid: true}
	stale := AuthSnapshot{Ready: true, LoggedIn: true}
	out := AuthSnapshot{Ready: true}

	tests := []struct {
		target NavigateTarget
		snap   AuthSnapshot
		want   NavigateOutcome
	}{
		{NavigateTarget{RequiresAuth: true}, out, NavigateRedirectLogin},
		{NavigateTarget{RequiresAuth: true}, stale, NavigateRedirectLogin},
		{NavigateTarget{RequiresAuth: true}, valid, NavigateAllow},
		{NavigateTarget{GuestOnly: true}, valid, NavigateRedirectLanding},
		{NavigateTarget{GuestOnly: true}, stale, NavigateAllow},
		{NavigateTarget{GuestOnly: true}, out, NavigateAllow},
		{NavigateTarget{}, valid, NavigateAllow},
		{NavigateTarget{}, out, NavigateAllow},
		{NavigateTarget{RequiresAuth: true, GuestOnly: true}, valid, NavigateAllow},
		{NavigateTarget{RequiresAuth: true, GuestOnly: true}, out, NavigateRedirectLogin},
	}

	for i, tc := range tests {
		if got := Decide(tc.target, tc.snap); got != tc.want {
			t.Fatalf("case %d: Decide(%+v, %+v) = %d, want %d", i, tc.target, tc.snap, got, tc.want)
		}
	}
}

func TestRunNavigateReadySkipsCheck(t *testing.T) {
	r := &navigateRecorder{snap: AuthSnapshot{Ready: true, LoggedIn: true, TokenValid: true}}

	res := RunNavigate(context.Background(), NavigateTarget{Name: "Chat", RequiresAuth: true}, r.deps(0))
	if res.Outcome != NavigateAllow || res.CheckedAuth || r.checks != 0 {
		t.Fatalf("unexpected result: %+v checks=%d", res, r.checks)
	}
}

func TestRunNavigateChecksThenDecides(t *testing.T) {
	r := &navigateRecorder{afterCheck: AuthSnapshot{Ready: true}}

	res := RunNavigate(context.Background(), NavigateTarget{Name: "Chat", RequiresAuth: true}, r.deps(time.Second))
	if !res.CheckedAuth || r.checks != 1 {
		t.Fatalf("expected one check, got %d", r.checks)
	}
	if res.Outcome != NavigateRedirectLogin || !res.SessionExpired {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(r.expired) != 1 || r.expired[0] != "Chat" {
		t.Fatalf("unexpected expire calls: %v", r.expired)
	}
}

func TestRunNavigateCheckFailureSkipsExpire(t *testing.T) {
	r := &navigateRecorder{checkErr: errors.New("down")}

	res := RunNavigate(context.Background(), NavigateTarget{Name: "Chat", RequiresAuth: true}, r.deps(time.Second))
	if res.Outcome != NavigateRedirectLogin || res.CheckAuthErr == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.SessionExpired || len(r.expired) != 0 {
		t.Fatal("a failed check must not clear credentials")
	}
	if res.Snapshot != (AuthSnapshot{Ready: true}) {
		t.Fatalf("failed check must decide as logged out, got %+v", res.Snapshot)
	}
}

func TestRunNavigateCheckFailureOnGuestRouteAllows(t *testing.T) {
	r := &navigateRecorder{checkErr: errors.New("down")}

	res := RunNavigate(context.Background(), NavigateTarget{Name: "Login", GuestOnly: true}, r.deps(time.Second))
	if res.Outcome != NavigateAllow {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunCheckAuthTimeoutAndPanic(t *testing.T) {
	hang := func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil
	}
	if err := runCheckAuth(context.Background(), hang, 10*time.Millisecond); !errors.Is(err, ErrCheckAuthTimeout) {
		t.Fatalf("expected ErrCheckAuthTimeout, got %v", err)
	}

	boom := func(context.Context) error { panic("boom") }
	if err := runCheckAuth(context.Background(), boom, time.Second); !errors.Is(err, ErrCheckAuthPanic) {
		t.Fatalf("expected ErrCheckAuthPanic, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runCheckAuth(ctx, hang, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if err := runCheckAuth(context.Background(), nil, 0); err != nil {
		t.Fatalf("nil check must succeed, got %v", err)
	}
}
