package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/domain/auth"
	"github.com/comses/citation/pkg/utils/try"
)

func TestIssuer(t *testing.T) {
	secret := []byte("50 chars of secret generated at deploy time......")
	alice := domain.Curator{
		Id: 1, Username: "alice", IsActive: true, IsSuperuser: true,
	}

	t.Run("Issue and Verify (success)", func(t *testing.T) {
		ttl := time.Hour
		testee := auth.Issuer{Secret: secret, TTL: ttl}

		before := time.Now().Truncate(time.Second)
		token := try.To(testee.Issue(alice)).OrFatal(t)
		after := time.Now().Truncate(time.Second)

		claims := try.To(testee.Verify(token)).OrFatal(t)

		if claims.Subject != "alice" {
			t.Errorf("Expected subject to be %q, but got %q", "alice", claims.Subject)
		}
		if !claims.Superuser {
			t.Error("Expected superuser claim to be set")
		}
		if claims.ID == "" {
			t.Error("Expected a token id")
		}
		if exp := claims.ExpiresAt; exp == nil {
			t.Error("Expected an expiry")
		} else if exp.Time.Before(before.Add(ttl)) || exp.Time.After(after.Add(ttl)) {
			t.Errorf(
				"Expected expiry between %s and %s, but got %s",
				before.Add(ttl), after.Add(ttl), exp.Time,
			)
		}

		another := try.To(testee.Issue(alice)).OrFatal(t)
		anotherClaims := try.To(testee.Verify(another)).OrFatal(t)
		if claims.ID == anotherClaims.ID {
			t.Errorf("Expected a fresh token id per issue, but got %q twice", claims.ID)
		}
	})

	t.Run("Issue (default ttl)", func(t *testing.T) {
		testee := auth.Issuer{Secret: secret}

		before := time.Now().Truncate(time.Second)
		token := try.To(testee.Issue(alice)).OrFatal(t)
		after := time.Now().Truncate(time.Second)

		claims := try.To(testee.Verify(token)).OrFatal(t)
		exp := claims.ExpiresAt.Time
		if exp.Before(before.Add(auth.DefaultTTL)) || exp.After(after.Add(auth.DefaultTTL)) {
			t.Errorf(
				"Expected expiry between %s and %s, but got %s",
				before.Add(auth.DefaultTTL), after.Add(auth.DefaultTTL), exp,
			)
		}
	})

	t.Run("Verify (failure by wrong secret)", func(t *testing.T) {
		token := try.To(auth.Issuer{Secret: secret}.Issue(alice)).OrFatal(t)

		testee := auth.Issuer{Secret: []byte("a different secret entirely")}
		if _, err := testee.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, but got %v", err)
		}
	})

	t.Run("Verify (failure by exp)", func(t *testing.T) {
		claims := auth.SessionClaim{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "alice",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		token := try.To(
			jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret),
		).OrFatal(t)

		testee := auth.Issuer{Secret: secret}
		if _, err := testee.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, but got %v", err)
		}
	})

	t.Run("Verify (failure by alg)", func(t *testing.T) {
		claims := auth.SessionClaim{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "alice",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}

		hs512 := try.To(
			jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret),
		).OrFatal(t)
		unsigned := try.To(
			jwt.NewWithClaims(jwt.SigningMethodNone, claims).
				SignedString(jwt.UnsafeAllowNoneSignatureType),
		).OrFatal(t)

		testee := auth.Issuer{Secret: secret}
		for name, token := range map[string]string{"HS512": hs512, "none": unsigned} {
			if _, err := testee.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
				t.Errorf("%s: Expected ErrInvalidToken, but got %v", name, err)
			}
		}
	})

	t.Run("Verify (failure by missing subject)", func(t *testing.T) {
		claims := auth.SessionClaim{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token := try.To(
			jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret),
		).OrFatal(t)

		testee := auth.Issuer{Secret: secret}
		if _, err := testee.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, but got %v", err)
		}
	})

	t.Run("Verify (failure by garbage)", func(t *testing.T) {
		testee := auth.Issuer{Secret: secret}
		if _, err := testee.Verify("not.a.token"); !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, but got %v", err)
		}
	})
}
