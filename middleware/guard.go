package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	navguard "github.com/MrEthical07/navGuard"
	"github.com/MrEthical07/navGuard/authstore"
)

const (
	// DefaultClientCookie names the cookie carrying the client ID.
	DefaultClientCookie = "navguard_client"
	defaultClientTTL    = 30 * 24 * time.Hour
)

type decisionContextKey struct{}

// DecisionFromContext returns the guard decision of an allowed page request.
func DecisionFromContext(ctx context.Context) (navguard.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(navguard.Decision)
	return d, ok
}

// ClientIDFromContext returns the client ID the middleware assigned to the request.
func ClientIDFromContext(ctx context.Context) string {
	return navguard.ClientIDFromContext(ctx)
}

// Option configures [Guard] and [RequireSession].
type Option func(*options)

type options struct {
	cookieName string
	cookieTTL  time.Duration
	secure     bool
	logger     *zap.Logger
	skip       []string
}

func defaultOptions() options {
	return options{
		cookieName: DefaultClientCookie,
		cookieTTL:  defaultClientTTL,
		logger:     zap.NewNop(),
	}
}

// WithClientCookie sets the client-ID cookie name, lifetime, and Secure flag.
func WithClientCookie(name string, ttl time.Duration, secure bool) Option {
	return func(o *options) {
		if name != "" {
			o.cookieName = name
		}
		if ttl > 0 {
			o.cookieTTL = ttl
		}
		o.secure = secure
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSkipPrefixes exempts paths under the given prefixes from guarding. They
// still get a client ID.
func WithSkipPrefixes(prefixes ...string) Option {
	return func(o *options) {
		o.skip = append(o.skip, prefixes...)
	}
}

// Guard runs the navigation guard for every GET and HEAD page request. Allowed
// requests reach next with the Decision in their context; denied or
// redirected ones receive a 302 to the decision's destination. Other methods
// and skipped prefixes pass through untouched.
func Guard(engine *navguard.Engine, registry *authstore.Registry, opts ...Option) func(http.Handler) http.Handler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil || registry == nil {
				http.Error(w, "navigation guard unavailable", http.StatusServiceUnavailable)
				return
			}

			clientID := o.ensureClientID(w, r)
			ctx := navguard.WithClientID(r.Context(), clientID)

			if !isNavigation(r) || o.skipped(r.URL.Path) {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			store, err := registry.Get(clientID)
			if err != nil {
				o.logger.Error("auth store unavailable", zap.String("client_id", clientID), zap.Error(err))
				http.Error(w, "navigation guard unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx, flash := withFlash(ctx)
			d, err := engine.Navigate(ctx, store, r.URL.Path, refererPath(r))
			if err != nil {
				o.logger.Error("navigate failed", zap.String("client_id", clientID), zap.Error(err))
				http.Error(w, "navigation guard unavailable", http.StatusServiceUnavailable)
				return
			}
			if flash.pending() {
				setNoticeCookie(w, o.secure)
			}

			if d.Redirected() {
				http.Redirect(w, r, d.Destination, http.StatusFound)
				return
			}

			ctx = context.WithValue(ctx, decisionContextKey{}, d)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isNavigation(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

func (o options) skipped(path string) bool {
	for _, p := range o.skip {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// ensureClientID returns the request's client ID, minting and setting a new
// one when the cookie is missing or malformed.
func (o options) ensureClientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(o.cookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     o.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(o.cookieTTL / time.Second),
		HttpOnly: true,
		Secure:   o.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// refererPath returns the path of a same-origin Referer, or "".
func refererPath(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if u.Host != "" && u.Host != r.Host {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
