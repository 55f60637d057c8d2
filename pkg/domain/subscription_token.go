package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// SubscriptionTokenLength is the length of a confirmation token.
const SubscriptionTokenLength = 25

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ErrInvalidToken is returned for tokens that cannot have been issued.
var ErrInvalidToken = errors.New("invalid subscription token")

// SubscriptionToken is a random alphanumeric confirmation token.
type SubscriptionToken string

// NewSubscriptionToken draws a token from crypto/rand.
func NewSubscriptionToken() (SubscriptionToken, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, SubscriptionTokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return SubscriptionToken(buf), nil
}

// ParseSubscriptionToken checks length and alphabet.
func ParseSubscriptionToken(s string) (SubscriptionToken, error) {
	if len(s) != SubscriptionTokenLength {
		return "", fmt.Errorf("%w: length %d", ErrInvalidToken, len(s))
	}
	for _, c := range []byte(s) {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum {
			return "", fmt.Errorf("%w: unexpected character %q", ErrInvalidToken, c)
		}
	}
	return SubscriptionToken(s), nil
}

func (t SubscriptionToken) String() string { return string(t) }
