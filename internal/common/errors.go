// Package common defines shared constants and sentinel errors used across
// GophReddit server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")
	ErrorForbidden  = errors.New("forbidden")

	// ErrorUnauthorized is returned by login when credentials do not match.
	// Unknown user, wrong password and unverified account are not distinguished.
	ErrorUnauthorized = errors.New("bad credentials")

	// ErrUnauthenticated is returned when a protected operation runs without
	// a resolved identity in the request context.
	ErrUnauthenticated = errors.New("authentication required")

	// Token errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Domain errors.
	ErrDuplicateIdentity = errors.New("username or email already registered")
	ErrDuplicateVote     = errors.New("duplicate vote")
	ErrPostNotFound      = errors.New("post not found")
	ErrSubredditNotFound = errors.New("subreddit not found")
	ErrCommentNotFound   = errors.New("comment not found")

	// ErrKeyStore means signing keys could not be loaded. It is fatal at startup.
	ErrKeyStore = errors.New("keystore failure")
)
