package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures talking to Redis.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrCredentialNotFound is returned when a client has no stored credential.
var ErrCredentialNotFound = errors.New("credential not found")

const minRecordTTL = time.Second

// Store is a Redis-backed credential store keyed by client ID.
//
// Records outlive their token by the retention window so an expired login can
// still be recognised as such (and reported once) rather than looking like a
// client that never signed in.
type Store struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewStore creates a credential [Store]. prefix namespaces the keys; retention
// is how long a record is kept past its token's expiry.
func NewStore(redis redis.UniversalClient, prefix string, retention time.Duration) *Store {
	if prefix == "" {
		prefix = "ng"
	}
	if retention < 0 {
		retention = 0
	}
	return &Store{
		redis:     redis,
		prefix:    prefix,
		retention: retention,
		now:       time.Now,
	}
}

func (s *Store) key(clientID string) string {
	return s.prefix + ":cred:" + clientID
}

// Save persists cred until its expiry plus the retention window.
//
//	Performance: 1 Redis SET.
func (s *Store) Save(ctx context.Context, cred *Credential) error {
	if cred == nil || cred.ClientID == "" {
		return errors.New("credential requires client id")
	}
	data, err := Encode(cred)
	if err != nil {
		return err
	}

	ttl := time.Unix(cred.ExpiresAt, 0).Sub(s.now()) + s.retention
	if ttl < minRecordTTL {
		ttl = minRecordTTL
	}

	if err := s.redis.Set(ctx, s.key(cred.ClientID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get loads the credential of clientID.
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, clientID string) (*Credential, error) {
	data, err := s.redis.Get(ctx, s.key(clientID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	cred, err := Decode(data)
	if err != nil {
		return nil, err
	}
	cred.ClientID = clientID
	return cred, nil
}

// Delete removes the credential of clientID. Deleting a missing record is not
// an error.
//
//	Performance: 1 Redis DEL.
func (s *Store) Delete(ctx context.Context, clientID string) error {
	if err := s.redis.Del(ctx, s.key(clientID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping measures a Redis round-trip.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

// For binds the store to one client. The result satisfies
// authstore.CredentialSource.
func (s *Store) For(clientID string) *ClientCredentials {
	return &ClientCredentials{store: s, clientID: clientID}
}

// ClientCredentials is a [Store] scoped to a single client ID.
type ClientCredentials struct {
	store    *Store
	clientID string
}

// LoadToken returns the stored token, or "" when the client has none. A
// corrupt record is deleted and reported as absent.
func (c *ClientCredentials) LoadToken(ctx context.Context) (string, error) {
	cred, err := c.store.Get(ctx, c.clientID)
	switch {
	case err == nil:
		return cred.Token, nil
	case errors.Is(err, ErrCredentialNotFound):
		return "", nil
	case errors.Is(err, ErrCorruptCredential):
		if delErr := c.store.Delete(ctx, c.clientID); delErr != nil {
			return "", delErr
		}
		return "", nil
	default:
		return "", err
	}
}

// SaveToken stores token for the client.
func (c *ClientCredentials) SaveToken(ctx context.Context, token string, expiresAt time.Time) error {
	return c.store.Save(ctx, &Credential{
		ClientID:  c.clientID,
		Token:     token,
		SavedAt:   c.store.now().Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
}

// ClearToken deletes the client's stored token.
func (c *ClientCredentials) ClearToken(ctx context.Context) error {
	return c.store.Delete(ctx, c.clientID)
}
