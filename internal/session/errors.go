package session

import (
	"errors"
	"fmt"

	"github.com/desertthunder/nbx/internal/shared"
)

var (
	// ErrInvalidCredential means the API rejected the credential.
	ErrInvalidCredential = fmt.Errorf("%w: credential rejected", shared.ErrAuthFailed)
	// ErrAuthFailed means the credential could not be checked.
	ErrAuthFailed = fmt.Errorf("%w: health probe failed", shared.ErrAuthFailed)
)

const (
	invalidCredentialMessage = "Invalid password. Please try again."
	authFailedMessage        = "Authentication failed. Please try again."
)

// UserMessage converts a [Session.Login] error into the message shown on the login form.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredential):
		return invalidCredentialMessage
	case errors.Is(err, ErrAuthFailed):
		return authFailedMessage
	default:
		return err.Error()
	}
}
