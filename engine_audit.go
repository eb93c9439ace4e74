package navguard

import (
	"context"
	"strconv"
	"time"

	"github.com/MrEthical07/navGuard/internal/audit"
	"go.uber.org/zap"
)

const (
	auditEventNavigationAllowed         = "navigation_allowed"
	auditEventNavigationRedirectLogin   = "navigation_redirect_login"
	auditEventNavigationRedirectLanding = "navigation_redirect_landing"
	auditEventCheckAuthFailed           = "check_auth_failed"
	auditEventSessionExpired            = "session_expired"
)

// AuditErrorCode classifies the Error field of audit events.
type AuditErrorCode string

const (
	auditErrCheckAuth     AuditErrorCode = "check_auth_failed"
	auditErrClearSession  AuditErrorCode = "clear_session_failed"
	auditErrNotAuthorized AuditErrorCode = "not_authenticated"
)

// record turns a finished decision into counters, audit events, and log lines.
func (e *Engine) record(ctx context.Context, d Decision) {
	clientID := ClientIDFromContext(ctx)

	if d.CheckedAuth {
		e.metricInc(MetricCheckAuthRun)
	}
	if d.CheckAuthErr != nil {
		e.metricInc(MetricCheckAuthFailure)
		e.emitAudit(ctx, e.decisionEvent(auditEventCheckAuthFailed, clientID, d, false, auditErrCheckAuth))
		e.logger.Warn("check auth failed; treating session as logged out",
			zap.String("client_id", clientID),
			zap.String("target", d.Target.Record.Name),
			zap.Error(d.CheckAuthErr))
	}
	if d.SessionExpired {
		e.metricInc(MetricSessionExpired)
		success := d.ExpireErr == nil
		code := AuditErrorCode("")
		if !success {
			e.metricInc(MetricSessionExpiredFailure)
			code = auditErrClearSession
			e.logger.Warn("handle session expired failed",
				zap.String("client_id", clientID),
				zap.String("target", d.Target.Record.Name),
				zap.Error(d.ExpireErr))
		}
		e.emitAudit(ctx, e.decisionEvent(auditEventSessionExpired, clientID, d, success, code))
	}

	switch d.Outcome {
	case OutcomeRedirectLogin:
		e.metricInc(MetricNavigationRedirectLogin)
		e.emitAudit(ctx, e.decisionEvent(auditEventNavigationRedirectLogin, clientID, d, false, auditErrNotAuthorized))
	case OutcomeRedirectLanding:
		e.metricInc(MetricNavigationRedirectLanding)
		e.emitAudit(ctx, e.decisionEvent(auditEventNavigationRedirectLanding, clientID, d, true, ""))
	default:
		e.metricInc(MetricNavigationAllowed)
		e.emitAudit(ctx, e.decisionEvent(auditEventNavigationAllowed, clientID, d, true, ""))
	}

	if ce := e.logger.Check(zap.DebugLevel, "navigation decided"); ce != nil {
		ce.Write(
			zap.String("client_id", clientID),
			zap.String("target", d.Target.Record.Name),
			zap.String("path", d.Target.Path),
			zap.String("destination", d.Destination),
			zap.Stringer("outcome", d.Outcome),
			zap.Bool("checked_auth", d.CheckedAuth),
		)
	}
}

func (e *Engine) decisionEvent(eventType, clientID string, d Decision, success bool, code AuditErrorCode) AuditEvent {
	ev := audit.NewEvent(eventType, time.Now().UTC())
	ev.ClientID = clientID
	ev.Target = d.Target.Record.Name
	ev.Destination = d.Destination
	ev.Outcome = d.Outcome.String()
	ev.Success = success
	ev.Error = string(code)
	if d.Source != nil {
		ev.Source = d.Source.Record.Name
	}

	meta := map[string]string{"path": d.Target.Path}
	if d.RedirectedFrom != "" {
		meta["redirected_from"] = d.RedirectedFrom
	}
	if d.CheckedAuth {
		meta["checked_auth"] = strconv.FormatBool(true)
	}
	ev.Metadata = meta
	return ev
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	e.audit.Emit(ctx, event)
}
