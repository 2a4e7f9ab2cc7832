// Package shortcode produces random codes for links created without a
// custom alias.
package shortcode

import (
	"crypto/rand"
	"math/big"
)

const (
	charset       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultLength = 6
)

// Generate returns length characters drawn uniformly from charset.
// Codes are not unique by construction; storage enforces uniqueness.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	size := big.NewInt(int64(len(charset)))
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}
