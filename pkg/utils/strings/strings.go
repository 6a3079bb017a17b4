package strings

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"
)

// return random Hex string (/[0-9a-f]*/)
func RandomHex(l uint) (string, error) {
	if l == 0 {
		return "", nil
	}

	// encoding from []byte to hex string is doubling its length.
	// in case of odd `l`, add extra 1 not to be short.
	buffer := make([]byte, l/2+1)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer)[:l], nil
}

// RandomFrom returns a random string of length l drawn from charset.
//
// Each rune is chosen with crypto/rand.
func RandomFrom(l uint, charset string) (string, error) {
	if l == 0 || charset == "" {
		return "", nil
	}

	runes := []rune(charset)
	max := big.NewInt(int64(len(runes)))

	b := &strings.Builder{}
	for i := uint(0); i < l; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteRune(runes[n.Int64()])
	}
	return b.String(), nil
}

// like strings.Split(s, sep), but return empty slice when s == ""
func SplitIfNotEmpty(s string, sep string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, sep)
}
