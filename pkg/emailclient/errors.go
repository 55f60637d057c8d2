package emailclient

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx response from the email API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("email API returned %d", e.StatusCode)
	}
	return fmt.Sprintf("email API returned %d: %s", e.StatusCode, e.Message)
}

// IsServerError reports whether err is a 5xx from the email API.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 500
}
