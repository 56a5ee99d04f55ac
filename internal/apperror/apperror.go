// Package apperror defines the domain error taxonomy shared by the service
// and handler layers.
//
// Services return these errors; the HTTP layer translates them to status
// codes with errors.Is/errors.As and never exposes anything else to the
// client. Store and mailer failures are wrapped before they cross a service
// boundary, so raw collaborator error text never reaches a response.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Each one identifies a machine-checkable error kind;
// handlers match on these with errors.Is.
var (
	ErrValidation           = errors.New("validation error")
	ErrConflict             = errors.New("conflict")
	ErrNotFound             = errors.New("not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrVerificationRequired = errors.New("verification required")
	ErrInvalidCode          = errors.New("invalid code")
	ErrExpiredCode          = errors.New("expired code")
	ErrAlreadyVerified      = errors.New("already verified")
	ErrUnauthorized         = errors.New("unauthorized")
)

// AppError couples an error kind with a human-readable message.
//
// Message is safe to return to the client. Field optionally names the
// offending input field. Email is set only on verification-required errors
// so the boundary can tell the client where the new code was sent.
type AppError struct {
	Err     error
	Message string
	Field   string
	Email   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed reports missing or malformed caller input.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// NotFound reports an unknown entity.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Conflict reports a duplicate of an already-verified account.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// InvalidCredentials reports a failed login. The same kind and message are
// used for "unknown email" and "wrong password" so responses cannot be used
// to enumerate accounts.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "Invalid credentials",
	}
}

// VerificationRequired reports a login blocked on a pending verification.
// It carries the email a fresh code was just sent to.
func VerificationRequired(email string) *AppError {
	return &AppError{
		Err:     ErrVerificationRequired,
		Message: "Account not verified. Code resent.",
		Email:   email,
	}
}

// InvalidCode reports a verification code that does not match the
// last-issued one.
func InvalidCode() *AppError {
	return &AppError{
		Err:     ErrInvalidCode,
		Message: "Invalid code",
	}
}

// ExpiredCode reports a verification code past its validity window.
func ExpiredCode() *AppError {
	return &AppError{
		Err:     ErrExpiredCode,
		Message: "Code expired",
	}
}

// AlreadyVerified reports a replayed verification attempt on an account
// that has already completed the transition to Verified.
func AlreadyVerified() *AppError {
	return &AppError{
		Err:     ErrAlreadyVerified,
		Message: "Account already verified",
	}
}

// Unauthorized reports a missing, invalid, or expired session token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
