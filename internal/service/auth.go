// Package service contains the business logic layer: the account
// verification state machine and the activity ledger. Handlers call into
// services; services call the repositories, mailer, and token issuer
// through injected dependencies and know nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/farhan/stepmates/internal/apperror"
	"github.com/farhan/stepmates/internal/auth"
	"github.com/farhan/stepmates/internal/mail"
	"github.com/farhan/stepmates/internal/metrics"
	"github.com/farhan/stepmates/internal/model"
	"github.com/farhan/stepmates/internal/otp"
	"github.com/farhan/stepmates/internal/repository"
)

// AuthService implements the account lifecycle:
//
//	NoAccount → PendingVerification → Verified
//
// PendingVerification is re-entrant: registering again or logging in while
// unverified reissues the code and resets its expiry window, invalidating
// any previously issued code. The Unverified→Verified transition happens
// exactly once; accounts are never deleted here.
type AuthService struct {
	accounts  repository.AccountRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	codes     *otp.Generator
	mailer    mail.Mailer
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	accounts repository.AccountRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	codes *otp.Generator,
	mailer mail.Mailer,
	rec metrics.Recorder,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		accounts:  accounts,
		tokens:    tokens,
		passwords: passwords,
		codes:     codes,
		mailer:    mailer,
		metrics:   rec,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterResult is returned by Register. CodeSent distinguishes "the
// gateway accepted the mail" from "check the server logs for the code";
// both are registration successes.
type RegisterResult struct {
	Email    string
	CodeSent bool
}

// AuthResult bundles an issued session token with the public account view.
type AuthResult struct {
	Token   string
	Account *model.PublicAccount
}

// Register starts (or restarts) the verification flow for an account.
//
// A never-seen (username, email) pair creates a pending account with a
// fresh password hash and code. An existing verified account is a
// conflict. An existing pending account is re-registration: its password
// hash is replaced and a fresh code issued. Code delivery failure never
// fails the operation; the code is logged instead.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		s.metrics.RecordRegistration(metrics.OutcomeRejected)
		return nil, apperror.ValidationFailed("", "Please enter all fields")
	}

	existing, err := s.accounts.FindByUsernameOrEmail(ctx, username, email)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		s.metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("service/auth: looking up account: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeRejected)
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	code, expiresAt := s.codes.Generate()

	var account *model.Account
	switch {
	case existing == nil:
		account = &model.Account{
			Username:      username,
			Email:         email,
			PasswordHash:  hash,
			Code:          code,
			CodeExpiresAt: &expiresAt,
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			s.metrics.RecordRegistration(metrics.OutcomeError)
			return nil, fmt.Errorf("service/auth: creating account: %w", err)
		}
		s.logger.Info("account registered, pending verification",
			slog.String("accountID", account.ID),
			slog.String("username", username),
		)

	case existing.Verified:
		s.metrics.RecordRegistration(metrics.OutcomeRejected)
		return nil, apperror.Conflict("User already exists")

	default:
		// Re-registration of a pending account: replace the password hash
		// and reissue the code. The previous code is invalid from here on,
		// even if its window had not elapsed.
		existing.PasswordHash = hash
		existing.Code = code
		existing.CodeExpiresAt = &expiresAt
		if err := s.accounts.Update(ctx, existing); err != nil {
			s.metrics.RecordRegistration(metrics.OutcomeError)
			return nil, fmt.Errorf("service/auth: updating pending account: %w", err)
		}
		account = existing
		s.logger.Info("pending account re-registered, code reissued",
			slog.String("accountID", account.ID),
		)
	}

	sent := s.deliverCode(ctx, email, "Your Verification Code", code)

	s.metrics.RecordRegistration(metrics.OutcomeOK)
	return &RegisterResult{Email: email, CodeSent: sent}, nil
}

// VerifyCode checks a pending code and, if it matches and is unexpired,
// transitions the account to Verified and issues a session.
//
// Guard order: unknown email, already verified, code mismatch, expiry.
// The already-verified guard means a code cannot be replayed after the
// transition.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || code == "" {
		s.metrics.RecordVerification(metrics.OutcomeRejected)
		return nil, apperror.ValidationFailed("", "Please enter all fields")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.metrics.RecordVerification(metrics.OutcomeRejected)
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "User not found"}
		}
		s.metrics.RecordVerification(metrics.OutcomeError)
		return nil, fmt.Errorf("service/auth: looking up account: %w", err)
	}

	if account.Verified {
		s.metrics.RecordVerification(metrics.OutcomeRejected)
		return nil, apperror.AlreadyVerified()
	}
	if account.Code == "" || account.Code != code {
		s.metrics.RecordVerification(metrics.OutcomeRejected)
		return nil, apperror.InvalidCode()
	}
	if account.CodeExpiresAt == nil || !s.now().Before(*account.CodeExpiresAt) {
		s.metrics.RecordVerification(metrics.OutcomeRejected)
		return nil, apperror.ExpiredCode()
	}

	account.Verified = true
	account.Code = ""
	account.CodeExpiresAt = nil
	if err := s.accounts.Update(ctx, account); err != nil {
		s.metrics.RecordVerification(metrics.OutcomeError)
		return nil, fmt.Errorf("service/auth: marking account verified: %w", err)
	}

	s.logger.Info("account verified", slog.String("accountID", account.ID))

	token, err := s.tokens.Issue(account.ID, account.Username)
	if err != nil {
		s.metrics.RecordVerification(metrics.OutcomeError)
		return nil, fmt.Errorf("service/auth: issuing session for %s: %w", account.ID, err)
	}

	s.metrics.RecordVerification(metrics.OutcomeOK)
	return &AuthResult{Token: token, Account: account.Public()}, nil
}

// Login authenticates a verified account.
//
// An unknown email and a wrong password both fail with the identical
// invalid-credentials error, so responses cannot enumerate accounts. A
// pending account never has its password checked: a fresh code is issued
// (invalidating the old one) and the caller is redirected to the verify
// step via the verification-required error, which carries the email.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.metrics.RecordLogin(metrics.OutcomeRejected)
			return nil, apperror.InvalidCredentials()
		}
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, fmt.Errorf("service/auth: looking up account: %w", err)
	}

	if account.Pending() {
		code, expiresAt := s.codes.Generate()
		account.Code = code
		account.CodeExpiresAt = &expiresAt
		if err := s.accounts.Update(ctx, account); err != nil {
			s.metrics.RecordLogin(metrics.OutcomeError)
			return nil, fmt.Errorf("service/auth: reissuing code: %w", err)
		}

		s.deliverCode(ctx, email, "Verify your account", code)
		s.logger.Info("unverified login, code reissued", slog.String("accountID", account.ID))

		s.metrics.RecordLogin(metrics.OutcomeRejected)
		return nil, apperror.VerificationRequired(email)
	}

	if !s.passwords.Verify(account.PasswordHash, password) {
		s.metrics.RecordLogin(metrics.OutcomeRejected)
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Issue(account.ID, account.Username)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, fmt.Errorf("service/auth: issuing session for %s: %w", account.ID, err)
	}

	s.logger.Info("login succeeded", slog.String("accountID", account.ID))
	s.metrics.RecordLogin(metrics.OutcomeOK)
	return &AuthResult{Token: token, Account: account.Public()}, nil
}

// GetAccount returns the public view of an account by ID. Used by the
// /me endpoint after the middleware has validated the session.
func (s *AuthService) GetAccount(ctx context.Context, id string) (*model.PublicAccount, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "User not found"}
		}
		return nil, fmt.Errorf("service/auth: fetching account %s: %w", id, err)
	}
	return account.Public(), nil
}

// deliverCode attempts delivery and logs the code as a fallback when the
// gateway declines, so registration stays usable while mail is down.
func (s *AuthService) deliverCode(ctx context.Context, email, subject, code string) bool {
	text := fmt.Sprintf("Your verification code is %s. It will expire in 10 minutes.", code)
	sent := s.mailer.Send(ctx, email, subject, text)
	s.metrics.RecordMailDelivery(sent)
	if !sent {
		s.logger.Warn("verification code delivery failed, code available in logs",
			slog.String("email", email),
			slog.String("code", code),
		)
	}
	return sent
}
