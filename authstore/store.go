package authstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	navguard "github.com/MrEthical07/navGuard"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	checkAuthKey          = "check-auth"
	defaultLoadTimeout    = 10 * time.Second
	defaultLoginRouteName = "Login"
)

// Option configures a [Store].
type Option func(*Store)

// WithNotifier sets the receiver of session-expired notices.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLoginRoute names the login route. Sessions expiring while the user is
// already headed to it produce no notice.
func WithLoginRoute(name string) Option {
	return func(s *Store) {
		s.loginRoute = name
	}
}

// WithClientID labels notices and log lines with the owning client.
func WithClientID(id string) Option {
	return func(s *Store) {
		s.clientID = id
	}
}

// WithLoadTimeout bounds a single credential load. Zero disables the bound.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.loadTimeout = d
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is the authentication state of one client. It satisfies
// navguard.AuthStore and is safe for concurrent use.
type Store struct {
	credentials CredentialSource
	validator   TokenValidator
	notifier    Notifier
	logger      *zap.Logger
	loginRoute  string
	clientID    string
	loadTimeout time.Duration
	now         func() time.Time

	mu sync.RWMutex
	// generation changes whenever the session is replaced from outside a
	// credential load; loads that started under an older one are discarded.
	generation uint64
	ready      bool
	loggedIn  bool
	token     string
	expiresAt time.Time

	noticeShown atomic.Bool
	checks      atomic.Uint64
	group       singleflight.Group
}

// New returns a not-ready Store over credentials, verifying tokens with validator.
func New(credentials CredentialSource, validator TokenValidator, opts ...Option) (*Store, error) {
	if credentials == nil {
		return nil, ErrNilCredentials
	}
	if validator == nil {
		return nil, ErrNilValidator
	}

	s := &Store{
		credentials: credentials,
		validator:   validator,
		notifier:    NoOpNotifier{},
		logger:      zap.NewNop(),
		loginRoute:  defaultLoginRouteName,
		loadTimeout: defaultLoadTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Snapshot returns a consistent view of the state. IsTokenValid is evaluated
// against the current time.
func (s *Store) Snapshot() navguard.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return navguard.AuthState{
		AuthReady:    s.ready,
		IsLoggedIn:   s.loggedIn,
		Token:        s.token,
		IsTokenValid: s.token != "" && s.now().Before(s.expiresAt),
	}
}

// CheckAuth loads the persisted token and populates the state from it. When
// the credential source fails the state is cleared but stays not-ready, so the
// next navigation retries the load. Concurrent calls share a single load; a
// caller whose ctx ends first stops waiting without cancelling the load for
// the others.
func (s *Store) CheckAuth(ctx context.Context) error {
	ch := s.group.DoChan(checkAuthKey, func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		if s.loadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, s.loadTimeout)
			defer cancel()
		}
		return nil, s.checkAuth(loadCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Checks reports how many credential loads have run.
func (s *Store) Checks() uint64 {
	return s.checks.Load()
}

func (s *Store) checkAuth(ctx context.Context) error {
	s.checks.Add(1)

	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	token, err := s.credentials.LoadToken(ctx)
	if err != nil {
		if !s.applyLoad(gen, false, "", time.Time{}) {
			return nil
		}
		s.logger.Warn("check auth: load credentials failed",
			zap.String("client_id", s.clientID),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrCheckAuth, err)
	}
	if token == "" {
		s.applyLoad(gen, true, "", time.Time{})
		return nil
	}

	expiresAt, err := s.validator.TokenExpiry(token)
	if err != nil {
		if !s.applyLoad(gen, true, "", time.Time{}) {
			return nil
		}
		s.logger.Warn("check auth: discarding unverifiable token",
			zap.String("client_id", s.clientID),
			zap.Error(err))
		if clearErr := s.credentials.ClearToken(ctx); clearErr != nil {
			return fmt.Errorf("%w: %v", ErrClearCredentials, clearErr)
		}
		return nil
	}

	s.applyLoad(gen, true, token, expiresAt)
	return nil
}

// applyLoad installs the result of a credential load started at gen. It
// reports false, leaving the state untouched, when the session was replaced
// in the meantime.
func (s *Store) applyLoad(gen uint64, ready bool, token string, expiresAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return false
	}
	s.ready = ready
	s.loggedIn = token != ""
	s.token = token
	s.expiresAt = expiresAt
	return true
}

// HandleSessionExpired clears the stored credentials and the in-memory
// session, then surfaces one "session expired" notice. The notice is skipped
// when there was no session to expire, when one is already showing, or when
// targetName is the login route.
func (s *Store) HandleSessionExpired(ctx context.Context, targetName string) error {
	s.mu.Lock()
	hadSession := s.loggedIn || s.token != ""
	expiredAt := s.expiresAt
	s.generation++
	s.ready = true
	s.loggedIn = false
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	var err error
	if clearErr := s.credentials.ClearToken(ctx); clearErr != nil {
		err = fmt.Errorf("%w: %v", ErrClearCredentials, clearErr)
	}

	if hadSession && targetName != s.loginRoute && s.noticeShown.CompareAndSwap(false, true) {
		s.notifier.SessionExpired(ctx, Notice{
			ClientID:  s.clientID,
			Target:    targetName,
			ExpiredAt: expiredAt,
			At:        s.now(),
		})
	}

	return err
}

// DismissNotice marks the current notice as closed so a later expiry can be
// reported again.
func (s *Store) DismissNotice() {
	s.noticeShown.Store(false)
}

// Login verifies token, persists it, and adopts it as the current session.
func (s *Store) Login(ctx context.Context, token string) error {
	expiresAt, err := s.validator.TokenExpiry(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !s.now().Before(expiresAt) {
		return ErrTokenExpired
	}
	if err := s.credentials.SaveToken(ctx, token, expiresAt); err != nil {
		return err
	}

	s.mu.Lock()
	s.generation++
	s.ready = true
	s.loggedIn = true
	s.token = token
	s.expiresAt = expiresAt
	s.mu.Unlock()

	s.noticeShown.Store(false)
	return nil
}

// Logout clears the session without a notice.
func (s *Store) Logout(ctx context.Context) error {
	s.setLoggedOut()
	if err := s.credentials.ClearToken(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrClearCredentials, err)
	}
	return nil
}

// Reset returns the store to the not-ready state so the next navigation
// reloads credentials.
func (s *Store) Reset() {
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()
}

func (s *Store) setLoggedOut() {
	s.mu.Lock()
	s.generation++
	s.ready = true
	s.loggedIn = false
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}
