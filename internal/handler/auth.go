package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/farhan/stepmates/internal/apperror"
	"github.com/farhan/stepmates/internal/auth"
	"github.com/farhan/stepmates/internal/service"
)

// AuthHandler exposes the registration, verification, and login flows.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message    string `json:"message"`
	IsVerified bool   `json:"isVerified"`
	Email      string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// HandleRegister starts the verification flow for a new or pending account.
//
// HTTP: POST /api/auth/register
//
// 201 on success whether or not the code was delivered; the message tells
// the user whether to check mail or ask an operator for the logged code.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	result, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Verification code sent"
	if !result.CodeSent {
		message = "Account created! (Email service busy, check server logs for your code)"
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Message:    message,
		IsVerified: false,
		Email:      result.Email,
	})
}

// HandleVerifyOTP completes verification and returns a session.
//
// HTTP: POST /api/auth/verify-otp
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	result, err := h.auth.VerifyCode(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token: result.Token,
		User:  result.Account,
	})
}

// HandleLogin authenticates a verified account and returns a session.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token: result.Token,
		User:  result.Account,
	})
}

// HandleMe returns the authenticated account's public profile.
//
// HTTP: GET /api/auth/me
// Auth: required (RequireAuth sets the account ID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	account, err := h.auth.GetAccount(r.Context(), accountID)
	if err != nil {
		h.logger.Error("HandleMe: account lookup failed", slog.String("accountID", accountID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}
