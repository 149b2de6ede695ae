package cognito

import (
	"errors"
	"net/http"
)

// Sentinel errors for Cognito operations.
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserNotConfirmed      = errors.New("user not confirmed")
	ErrTooManyRequests       = errors.New("too many requests")
	ErrNotAuthorized         = errors.New("not authorized")
	ErrLimitExceeded         = errors.New("limit exceeded")
	ErrPasswordResetRequired = errors.New("password reset required")
	ErrInvalidParameter      = errors.New("invalid parameter")
)

// ErrorInfo maps a sentinel error to its HTTP status and error code.
type ErrorInfo struct {
	Status int
	Code   string
}

var errorMap = map[error]ErrorInfo{
	ErrUserNotFound:          {Status: http.StatusUnauthorized, Code: "NOT_AUTHORIZED"},
	ErrUserNotConfirmed:      {Status: http.StatusForbidden, Code: "USER_NOT_CONFIRMED"},
	ErrTooManyRequests:       {Status: http.StatusTooManyRequests, Code: "TOO_MANY_REQUESTS"},
	ErrNotAuthorized:         {Status: http.StatusUnauthorized, Code: "NOT_AUTHORIZED"},
	ErrLimitExceeded:         {Status: http.StatusTooManyRequests, Code: "LIMIT_EXCEEDED"},
	ErrPasswordResetRequired: {Status: http.StatusForbidden, Code: "PASSWORD_RESET_REQUIRED"},
	ErrInvalidParameter:      {Status: http.StatusBadRequest, Code: "INVALID_PARAMETER"},
}

// LookupError checks if the given error matches any known Cognito sentinel error
// and returns the corresponding ErrorInfo. Returns false if no match.
func LookupError(err error) (ErrorInfo, bool) {
	for sentinel, info := range errorMap {
		if errors.Is(err, sentinel) {
			return info, true
		}
	}
	return ErrorInfo{}, false
}
