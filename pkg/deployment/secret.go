package deployment

import (
	kstrings "github.com/comses/citation/pkg/utils/strings"
)

// SecretKeyLength and SecretKeyCharset match what the catalog has
// always generated for its signing key, so keys in existing
// deployments stay interchangeable with fresh ones.
const SecretKeyLength = 50
const SecretKeyCharset = "abcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*(-_=+)"

// NewSecretKey draws a fresh session-token signing key from
// crypto-grade randomness.
func NewSecretKey() (string, error) {
	return kstrings.RandomFrom(SecretKeyLength, SecretKeyCharset)
}
