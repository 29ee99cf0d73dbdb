package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the claim set carried by a TaskVault bearer token.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenAuthority issues and verifies signed, time-bounded bearer tokens.
// Tokens are self-contained: there is no server-side record and no
// revocation before natural expiry.
type TokenAuthority struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration

	// now is injectable for expiry tests.
	now func() time.Time
}

// NewTokenAuthority creates a token authority for the given shared secret,
// signature algorithm name and time-to-live. An empty secret is accepted
// here so the daemon can start for unauthenticated use cases; Issue fails
// until a secret is present. TTL is floored at one second.
func NewTokenAuthority(secret, algorithm string, ttl time.Duration) (*TokenAuthority, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}

	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}

	if ttl < time.Second {
		ttl = time.Second
	}

	return &TokenAuthority{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue creates a signed token asserting the given principal id as subject,
// expiring after the configured TTL.
func (a *TokenAuthority) Issue(subject string) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrNoSigningSecret
	}

	now := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(a.method, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, nil
}

// Verify checks signature, structure and expiry of a token and returns its
// claims. Any failure mode collapses into ErrInvalidToken.
func (a *TokenAuthority) Verify(tokenString string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, ErrNoSigningSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(_ *jwt.Token) (any, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{a.method.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims, nil
}
