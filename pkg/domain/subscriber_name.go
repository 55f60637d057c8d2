package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// MaxNameLength is the longest accepted name, in user-perceived
// characters (grapheme clusters).
const MaxNameLength = 256

const forbiddenNameCharacters = `/()"<>\{}`

// SubscriberName is a name that passed ParseSubscriberName.
type SubscriberName string

// ParseSubscriberName trims s and rejects empty names, names longer than
// MaxNameLength grapheme clusters and names containing any of /()"<>\{}.
func ParseSubscriberName(s string) (SubscriberName, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", ErrEmptyName
	}
	if n := uniseg.GraphemeClusterCount(name); n > MaxNameLength {
		return "", fmt.Errorf("%w: %d characters, max %d", ErrNameTooLong, n, MaxNameLength)
	}
	if i := strings.IndexAny(name, forbiddenNameCharacters); i >= 0 {
		r, _ := utf8.DecodeRuneInString(name[i:])
		return "", fmt.Errorf("%w: %q", ErrForbiddenCharacters, r)
	}
	return SubscriberName(name), nil
}

func (n SubscriberName) String() string { return string(n) }
