package authstore

import "errors"

var (
	// ErrNilCredentials is returned by New without a credential source.
	ErrNilCredentials = errors.New("credential source required")
	// ErrNilValidator is returned by New without a token validator.
	ErrNilValidator = errors.New("token validator required")
	// ErrCheckAuth wraps failures reading persisted credentials.
	ErrCheckAuth = errors.New("check auth failed")
	// ErrClearCredentials wraps failures clearing persisted credentials.
	ErrClearCredentials = errors.New("clear credentials failed")
	// ErrInvalidToken is returned by Login for tokens that fail verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned by Login for tokens already past expiry.
	ErrTokenExpired = errors.New("token expired")
)
