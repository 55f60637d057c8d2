package domain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	emailValidator     *validator.Validate
	emailValidatorOnce sync.Once
)

// SubscriberEmail is an address that passed ParseSubscriberEmail.
type SubscriberEmail string

// ParseSubscriberEmail trims s and checks it is a well-formed address.
func ParseSubscriberEmail(s string) (SubscriberEmail, error) {
	emailValidatorOnce.Do(func() { emailValidator = validator.New() })

	email := strings.TrimSpace(s)
	if err := emailValidator.Var(email, "required,email"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}
	return SubscriberEmail(email), nil
}

func (e SubscriberEmail) String() string { return string(e) }
