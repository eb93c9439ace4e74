package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	navguard "github.com/MrEthical07/navGuard"
	"github.com/MrEthical07/navGuard/authstore"
)

type storeContextKey struct{}

// StoreFromContext returns the auth store [RequireSession] resolved for the request.
func StoreFromContext(ctx context.Context) (*authstore.Store, bool) {
	s, ok := ctx.Value(storeContextKey{}).(*authstore.Store)
	return s, ok && s != nil
}

// RequireSession guards API endpoints: requests without a valid session get a
// 401 instead of a redirect. The client's store is attached to the context.
// It must run behind [Guard] or another middleware that assigns client IDs.
func RequireSession(registry *authstore.Registry, opts ...Option) func(http.Handler) http.Handler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := navguard.ClientIDFromContext(r.Context())
			if registry == nil || clientID == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			store, err := registry.Get(clientID)
			if err != nil {
				o.logger.Error("auth store unavailable", zap.String("client_id", clientID), zap.Error(err))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !store.Snapshot().AuthReady {
				if err := store.CheckAuth(r.Context()); err != nil {
					o.logger.Warn("check auth failed", zap.String("client_id", clientID), zap.Error(err))
				}
			}
			if !store.Snapshot().Valid() {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), storeContextKey{}, store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithStore resolves the client's auth store without requiring a session, for
// endpoints such as login that act on it.
func WithStore(registry *authstore.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := navguard.ClientIDFromContext(r.Context())
			if registry == nil || clientID == "" {
				http.Error(w, "client id required", http.StatusBadRequest)
				return
			}
			store, err := registry.Get(clientID)
			if err != nil {
				http.Error(w, "auth store unavailable", http.StatusServiceUnavailable)
				return
			}
			ctx := context.WithValue(r.Context(), storeContextKey{}, store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
