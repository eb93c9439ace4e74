package authstore

import (
	"context"
	"sync"
	"time"
)

// CredentialSource persists the token a client navigates with.
// LoadToken returns "" when nothing is stored.
type CredentialSource interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string, expiresAt time.Time) error
	ClearToken(ctx context.Context) error
}

// TokenValidator verifies a token and reports when it expires. Expired but
// authentic tokens must not return an error.
type TokenValidator interface {
	TokenExpiry(token string) (time.Time, error)
}

// MemoryCredentials is an in-process [CredentialSource].
type MemoryCredentials struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewMemoryCredentials returns a source preloaded with token, which may be empty.
func NewMemoryCredentials(token string) *MemoryCredentials {
	return &MemoryCredentials{token: token}
}

func (m *MemoryCredentials) LoadToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryCredentials) SaveToken(_ context.Context, token string, expiresAt time.Time) error {
	m.mu.Lock()
	m.token = token
	m.expiresAt = expiresAt
	m.mu.Unlock()
	return nil
}

func (m *MemoryCredentials) ClearToken(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
	return nil
}
