package navguard

import (
	"context"
	"strings"
	"testing"
	"time"
)

func buildAuditTestEngine(t *testing.T, sink AuditSink) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 32
	cfg.Audit.DropIfFull = false

	return buildTestEngine(t, func(b *Builder) {
		b.WithConfig(cfg).WithAuditSink(sink)
	})
}

func collectEvents(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()

	out := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("expected %d events, got %d", n, len(out))
		}
	}
	return out
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := NewChannelSink(8)
	engine := buildTestEngine(t, func(b *Builder) { b.WithAuditSink(sink) })

	if _, err := engine.Navigate(context.Background(), &fakeStore{state: stateValid}, "/chat", ""); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	engine.Close()

	select {
	case ev := <-sink.Events():
		t.Fatalf("unexpected event with audit disabled: %+v", ev)
	default:
	}
}

func TestAuditAllowedEventFields(t *testing.T) {
	sink := NewChannelSink(8)
	engine := buildAuditTestEngine(t, sink)

	ctx := WithClientID(context.Background(), "client-7")
	if _, err := engine.Navigate(ctx, &fakeStore{state: stateValid}, "/", "/chat"); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}

	ev := collectEvents(t, sink, 1)[0]
	if ev.EventType != auditEventNavigationAllowed || !ev.Success {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.ID == "" || ev.ClientID != "client-7" || ev.Target != "SummaryDashboard" || ev.Source != "Chat" {
		t.Fatalf("unexpected identity fields: %+v", ev)
	}
	if ev.Destination != "/summary-dashboard" || ev.Metadata["redirected_from"] != "/" {
		t.Fatalf("unexpected routing fields: %+v", ev)
	}
}

func TestAuditDeniedEmitsSessionExpiredAndRedirect(t *testing.T) {
	sink := NewChannelSink(8)
	engine := buildAuditTestEngine(t, sink)

	if _, err := engine.Navigate(context.Background(), &fakeStore{state: stateLoggedOut}, "/chat", ""); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}

	events := collectEvents(t, sink, 2)
	if events[0].EventType != auditEventSessionExpired || !events[0].Success {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].EventType != auditEventNavigationRedirectLogin || events[1].Error != string(auditErrNotAuthorized) {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestAuditCheckAuthFailure(t *testing.T) {
	sink := NewChannelSink(8)
	engine := buildAuditTestEngine(t, sink)

	store := &fakeStore{checkErr: context.DeadlineExceeded}
	if _, err := engine.Navigate(context.Background(), store, "/chat", ""); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}

	events := collectEvents(t, sink, 2)
	if events[0].EventType != auditEventCheckAuthFailed || events[0].Error != string(auditErrCheckAuth) {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].EventType != auditEventNavigationRedirectLogin {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestAuditNoTokensInEvents(t *testing.T) {
	var buf strings.Builder
	engine := buildAuditTestEngine(t, NewJSONWriterSink(&buf))

	store := &fakeStore{state: AuthState{AuthReady: true, IsLoggedIn: true, Token: "secret-token-value", IsTokenValid: true}}
	for _, to := range []string{"/chat", "/login", "/nowhere"} {
		if _, err := engine.Navigate(context.Background(), store, to, ""); err != nil {
			t.Fatalf("Navigate failed: %v", err)
		}
	}
	engine.Close()

	out := buf.String()
	if out == "" {
		t.Fatal("expected audit output")
	}
	if strings.Contains(out, "secret-token-value") {
		t.Fatal("audit events must not carry tokens")
	}
}
