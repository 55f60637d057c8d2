// Package domain holds the validated subscriber types accepted by the
// newsletter API.
package domain

import "errors"

var (
	ErrEmptyName           = errors.New("subscriber name is empty")
	ErrNameTooLong         = errors.New("subscriber name is too long")
	ErrForbiddenCharacters = errors.New("subscriber name contains forbidden characters")
	ErrInvalidEmail        = errors.New("invalid subscriber email")
)
