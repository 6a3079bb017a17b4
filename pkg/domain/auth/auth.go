// Package auth signs and checks the session tokens the API hands out.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/comses/citation/pkg/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Sessions last two weeks unless configured otherwise.
const DefaultTTL = 14 * 24 * time.Hour

// SessionClaim names the curator a session token speaks for.
type SessionClaim struct {
	jwt.RegisteredClaims

	// private claims
	Superuser bool `json:"citation/superuser"`
}

// Issuer signs and verifies session tokens with a shared HS256 secret.
type Issuer struct {
	// Secret is the signing key. Tokens signed with another secret
	// do not verify.
	Secret []byte

	// TTL of new tokens. Zero or less means DefaultTTL.
	TTL time.Duration
}

func (i Issuer) ttl() time.Duration {
	if i.TTL <= 0 {
		return DefaultTTL
	}
	return i.TTL
}

// Expiry is when a token issued at from stops working.
func (i Issuer) Expiry(from time.Time) time.Time {
	return from.Add(i.ttl())
}

// Issue signs a session token for a curator.
//
// The subject is the username, the token id is fresh per call, and the
// expiry is TTL from now.
func (i Issuer) Issue(account domain.Curator) (string, error) {
	if len(i.Secret) == 0 {
		return "", errors.New("no secret key to sign with")
	}

	now := time.Now()
	claims := SessionClaim{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl())),
			ID:        uuid.NewString(),
		},
		Superuser: account.IsSuperuser,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(i.Secret)
}

// Verify parses a session token and returns its claims.
//
// # Returns
//
// - SessionClaim
//
// - error: [ErrInvalidToken] when the token is malformed, signed with
// another key or algorithm, expired or missing its subject;
// otherwise any error from [jwt.ParseWithClaims].
func (i Issuer) Verify(token string) (SessionClaim, error) {
	if len(i.Secret) == 0 {
		return SessionClaim{}, errors.New("no secret key to verify with")
	}

	claims := new(SessionClaim)
	_, err := jwt.ParseWithClaims(
		token, claims,
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, errors.New("unexpected signing algorithm")
			}
			return i.Secret, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return SessionClaim{}, errors.Join(ErrInvalidToken, err)
		}
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return SessionClaim{}, errors.Join(ErrInvalidToken, err)
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaim{}, errors.Join(ErrInvalidToken, err)
		}
		if errors.Is(err, jwt.ErrTokenUnverifiable) {
			return SessionClaim{}, errors.Join(ErrInvalidToken, err)
		}
		return SessionClaim{}, err
	}
	if claims.Subject == "" {
		return SessionClaim{}, errors.Join(ErrInvalidToken, errors.New("token has no subject"))
	}
	return *claims, nil
}
