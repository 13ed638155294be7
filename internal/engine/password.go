package engine

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// PasswordLength is the length of generated throwaway passwords.
const PasswordLength = 30

// PasswordAlphabet is the character set of generated passwords.
const PasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// PasswordSource produces the password of a newly created person.
type PasswordSource func() (string, error)

// RandomPassword returns PasswordLength characters drawn uniformly from
// PasswordAlphabet. Authentication is delegated elsewhere, so the password
// is never shown to anyone.
func RandomPassword() (string, error) {
	max := big.NewInt(int64(len(PasswordAlphabet)))
	buf := make([]byte, PasswordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		buf[i] = PasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
