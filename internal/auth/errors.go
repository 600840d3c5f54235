package auth

import (
	"fmt"
	"net/http"
	"time"
)

// Error is a business-rule failure with a stable machine-readable code.
// Handlers match on the code, never on the message text.
type Error struct {
	Code    string
	Message string
	Status  int

	// RetryAfter is set on transient denials (lockout, rate limit) so the
	// handler can emit a Retry-After header.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches two Errors by code so wrapped copies with dynamic messages
// still compare equal under errors.Is.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Code == e.Code
}

var (
	ErrEmailRequired      = &Error{Code: "EMAIL_REQUIRED", Message: "email is required", Status: http.StatusBadRequest}
	ErrPasswordRequired   = &Error{Code: "PASSWORD_REQUIRED", Message: "password is required", Status: http.StatusBadRequest}
	ErrInvalidCharacters  = &Error{Code: "INVALID_CHARACTERS", Message: "credentials contain disallowed characters", Status: http.StatusBadRequest}
	ErrInvalidEmailFormat = &Error{Code: "INVALID_EMAIL_FORMAT", Message: "email format is invalid", Status: http.StatusBadRequest}
	ErrPasswordTooShort   = &Error{Code: "PASSWORD_TOO_SHORT", Message: "password must be at least 8 characters", Status: http.StatusBadRequest}
	ErrPasswordComplexity = &Error{Code: "PASSWORD_COMPLEXITY", Message: "password must contain an uppercase letter, a lowercase letter, a digit, and a special character", Status: http.StatusBadRequest}
	ErrCommonPassword     = &Error{Code: "COMMON_PASSWORD", Message: "password is too common or weak", Status: http.StatusBadRequest}
	ErrInjectionDetected  = &Error{Code: "SQL_INJECTION_DETECTED", Message: "possible SQL injection detected", Status: http.StatusBadRequest}
	ErrAccountLocked      = &Error{Code: "ACCOUNT_LOCKED", Message: "account temporarily locked", Status: http.StatusTooManyRequests}
	ErrIPBlocked          = &Error{Code: "IP_BLOCKED", Message: "access denied", Status: http.StatusForbidden}
	ErrRateLimited        = &Error{Code: "RATE_LIMIT_EXCEEDED", Message: "too many requests, try again later", Status: http.StatusTooManyRequests}
	ErrInvalidCredentials = &Error{Code: "INVALID_CREDENTIALS", Message: "invalid credentials", Status: http.StatusUnauthorized}
	ErrDuplicateUser      = &Error{Code: "DUPLICATE_USER", Message: "user already exists", Status: http.StatusBadRequest}
	ErrInvalidToken       = &Error{Code: "INVALID_TOKEN", Message: "invalid or expired token", Status: http.StatusUnauthorized}
	ErrInvalidSession     = &Error{Code: "INVALID_SESSION", Message: "session is no longer valid", Status: http.StatusUnauthorized}
)

// ValidationError builds a VALIDATION_ERROR with a field-specific message.
func ValidationError(message string) *Error {
	return &Error{Code: "VALIDATION_ERROR", Message: message, Status: http.StatusBadRequest}
}

// AccountLockedError carries the remaining lockout in the message, rounded
// up to whole minutes the way clients display it.
func AccountLockedError(retryAfter time.Duration) *Error {
	minutes := int((retryAfter + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return &Error{
		Code:       ErrAccountLocked.Code,
		Message:    fmt.Sprintf("account locked, try again in %d minutes", minutes),
		Status:     ErrAccountLocked.Status,
		RetryAfter: retryAfter,
	}
}
