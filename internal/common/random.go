package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// MakeRandDigits returns a string of n decimal digits generated with
// crypto/rand. Leading zeros are allowed.
func MakeRandDigits(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("error generating random number: %w", err)
	}

	return fmt.Sprintf("%0*d", n, v), nil
}
