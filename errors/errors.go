package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated    = fmt.Errorf("unauthenticated")
	ErrIdentityMismatch   = fmt.Errorf("identity mismatch")
	ErrForbidden          = fmt.Errorf("not a member of this chat")
	ErrInvalidMessage     = fmt.Errorf("invalid message")
	ErrStorage            = fmt.Errorf("storage failure")
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	ErrDeliveryFailure    = fmt.Errorf("delivery failed")
	ErrNotFound           = fmt.Errorf("not found")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)

// HTTPStatus maps a domain error to the status code exposed at the
// transport edge. Unknown errors are treated as server failures.
func HTTPStatus(err error) int {
	switch {
	case stderrors.Is(err, ErrInvalidMessage),
		stderrors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrUnauthenticated),
		stderrors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrIdentityMismatch),
		stderrors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
