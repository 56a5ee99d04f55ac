package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsMatchTheirSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		sentinel error
	}{
		{"validation", ValidationFailed("email", "email is required"), ErrValidation},
		{"not found", NotFound("account", "abc"), ErrNotFound},
		{"conflict", Conflict("User already exists"), ErrConflict},
		{"invalid credentials", InvalidCredentials(), ErrInvalidCredentials},
		{"verification required", VerificationRequired("a@b.com"), ErrVerificationRequired},
		{"invalid code", InvalidCode(), ErrInvalidCode},
		{"expired code", ExpiredCode(), ErrExpiredCode},
		{"already verified", AlreadyVerified(), ErrAlreadyVerified},
		{"unauthorized", Unauthorized("token expired"), ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.NotEmpty(t, tt.err.Error())

			// Each kind matches only its own sentinel.
			for _, other := range tests {
				if other.sentinel != tt.sentinel {
					assert.False(t, errors.Is(tt.err, other.sentinel))
				}
			}
		})
	}
}

func TestAppErrorSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", InvalidCredentials())

	assert.True(t, errors.Is(wrapped, ErrInvalidCredentials))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "Invalid credentials", appErr.Message)
}

func TestVerificationRequiredCarriesEmail(t *testing.T) {
	err := VerificationRequired("farhan@example.com")

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "farhan@example.com", appErr.Email)
	assert.Equal(t, "Account not verified. Code resent.", appErr.Message)
}

func TestNotFoundMessageNamesResource(t *testing.T) {
	err := NotFound("account", "c9s3k1")
	assert.Equal(t, "account not found with id c9s3k1", err.Error())
}

func TestValidationFailedCarriesField(t *testing.T) {
	err := ValidationFailed("steps", "steps must not be negative")
	assert.Equal(t, "steps", err.Field)
	assert.Equal(t, "steps must not be negative", err.Error())
}
