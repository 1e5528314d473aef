// Package auth issues and validates the signed access tokens used as bearer
// credentials, and carries the authenticated identity through a request's
// context.
package auth

import (
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/server/keystore"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer is written to the iss claim and required on validation.
const DefaultIssuer = "gophreddit"

// TokenService signs access tokens with the keystore private key and
// verifies them with the public key. It holds no mutable state.
type TokenService struct {
	signKey   crypto.Signer
	verifyKey crypto.PublicKey
	method    jwt.SigningMethod
	ttl       time.Duration
	issuer    string
	now       func() time.Time
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// WithIssuer overrides DefaultIssuer.
func WithIssuer(iss string) Option {
	return func(s *TokenService) { s.issuer = iss }
}

// NewTokenService builds a TokenService issuing tokens valid for ttl.
func NewTokenService(ks *keystore.KeyStore, ttl time.Duration, opts ...Option) (*TokenService, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("access token ttl must be positive, got %s", ttl)
	}
	method := jwt.GetSigningMethod(ks.Algorithm())
	if method == nil {
		return nil, fmt.Errorf("%w: no signing method for %q", common.ErrKeyStore, ks.Algorithm())
	}

	s := &TokenService{
		signKey:   ks.SigningKey(),
		verifyKey: ks.VerificationKey(),
		method:    method,
		ttl:       ttl,
		issuer:    DefaultIssuer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for subject with the configured TTL and returns it
// together with its expiry.
func (s *TokenService) Issue(subject string) (string, time.Time, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL signs a token for subject valid for ttl.
func (s *TokenService) IssueWithTTL(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is empty")
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(s.method, claims).SignedString(s.signKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// Validate checks the signature, algorithm, issuer and expiry of token and
// returns its subject. Every failure is reported as common.ErrInvalidToken.
func (s *TokenService) Validate(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)

	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}

// SubjectOf extracts the subject from token without verifying the signature.
// Only call it on a token that already passed Validate.
func (s *TokenService) SubjectOf(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}
