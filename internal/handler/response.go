// Package handler is the HTTP boundary: it parses requests, calls the
// service layer, and writes JSON responses. Domain errors are mapped to
// status codes here; services never see HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/farhan/stepmates/internal/apperror"
)

// ErrorResponse is the standard error shape for every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`

	// Set only on verification_required errors, so clients can route the
	// user straight to the verify step.
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
	Email                string `json:"email,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that is left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and a safe body.
//
// The 400s for bad credentials, bad codes, and already-verified mirror the
// upstream API contract the mobile clients were written against;
// verification_required is the one 403.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrInvalidCredentials):
			status = http.StatusBadRequest
			errorType = "invalid_credentials"
		case errors.Is(err, apperror.ErrInvalidCode):
			status = http.StatusBadRequest
			errorType = "invalid_code"
		case errors.Is(err, apperror.ErrExpiredCode):
			status = http.StatusBadRequest
			errorType = "expired_code"
		case errors.Is(err, apperror.ErrAlreadyVerified):
			status = http.StatusBadRequest
			errorType = "already_verified"
		case errors.Is(err, apperror.ErrVerificationRequired):
			status = http.StatusForbidden
			errorType = "verification_required"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		}

		resp := ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		}
		if errors.Is(err, apperror.ErrVerificationRequired) {
			resp.RequiresVerification = true
			resp.Email = appErr.Email
		}

		writeJSON(w, status, resp)
		return
	}

	// Unknown error: opaque 500, no internal detail.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
