package random

import (
	"crypto/rand"
	"math/big"
)

// Random generates session token material. Mockable so tests can mint
// predictable tokens.
type Random interface {
	// String generates a random string of the given length from the given alphabet
	String(length int, alphabet string) string
}

// SecureRandom implements Random using crypto/rand
type SecureRandom struct{}

// New creates a new SecureRandom
func New() *SecureRandom {
	return &SecureRandom{}
}

// String generates a random string of the given length from the given alphabet
func (r *SecureRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	result := make([]byte, length)
	for i := range result {
		result[i] = alphabet[intn(len(alphabet))]
	}
	return string(result)
}

// intn returns a cryptographically random int in [0, n)
func intn(n int) int {
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		return 0
	}
	return int(result.Int64())
}
