// email_verification.go implements the email confirmation workflow. A user
// confirms either by typing the short code from the email or by following the
// signed link; completing one path cancels the other because success clears
// the code, the token, and the expiry together.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fest-dev/fest/internal/db/models"
	"github.com/fest-dev/fest/internal/db/repositories"
	"github.com/fest-dev/fest/internal/telemetry"
	"github.com/fest-dev/fest/internal/tokens"
)

// ConfirmationMailer delivers the confirmation email. Satisfied by *mail.Sender.
type ConfirmationMailer interface {
	SendEmailConfirmation(ctx context.Context, to, code, token string) error
}

// EmailVerificationService issues and validates email confirmations.
type EmailVerificationService struct {
	users  *repositories.UserRepository
	issuer *tokens.Issuer
	mailer ConfirmationMailer
}

// NewEmailVerificationService creates an EmailVerificationService
func NewEmailVerificationService(users *repositories.UserRepository, issuer *tokens.Issuer, mailer ConfirmationMailer) *EmailVerificationService {
	return &EmailVerificationService{users: users, issuer: issuer, mailer: mailer}
}

// Issue generates a fresh code and token pair, emails them, and persists them.
// Re-issuing replaces any previous pair, so only the latest email is
// redeemable. Delivery runs before the store: a failed send leaves any
// previously delivered pair untouched and still redeemable.
func (s *EmailVerificationService) Issue(ctx context.Context, user *models.User) error {
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	code, err := tokens.NewConfirmationCode(s.issuer.CodeLength())
	if err != nil {
		return fmt.Errorf("failed to generate confirmation code: %w", err)
	}

	token, err := s.issuer.SignEmailConfirmation(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("failed to sign confirmation token: %w", err)
	}

	if err := s.mailer.SendEmailConfirmation(ctx, user.Email, code, token); err != nil {
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	codeExpires := time.Now().Add(s.issuer.CodeTTL())
	if err := s.users.SetVerificationState(ctx, user.ID, code, token, codeExpires); err != nil {
		return fmt.Errorf("failed to store verification state: %w", err)
	}

	return nil
}

// ConfirmByCode verifies the account using the short code. The lookup is
// scoped by the caller's email, so a code can only confirm the account it was
// issued for. An expired code is reported distinctly from a wrong one.
func (s *EmailVerificationService) ConfirmByCode(ctx context.Context, principal *models.User, code string) error {
	user, err := s.users.GetUserByEmailAndCode(ctx, principal.Email, code)
	if err != nil {
		return err
	}
	if user == nil {
		telemetry.EmailConfirmationsTotal.WithLabelValues("code", "invalid").Inc()
		return ErrInvalidCode
	}

	if user.EmailVerificationCodeExpires == nil || user.EmailVerificationCodeExpires.Before(time.Now()) {
		telemetry.EmailConfirmationsTotal.WithLabelValues("code", "expired").Inc()
		return ErrCodeExpired
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	telemetry.EmailConfirmationsTotal.WithLabelValues("code", "confirmed").Inc()
	return nil
}

// ConfirmByToken verifies the account using the signed link token. Three
// checks run in order: the signature and expiry, that the claims name the
// caller, and that the stored row still holds this exact token (a re-issued
// or already-used token no longer does).
func (s *EmailVerificationService) ConfirmByToken(ctx context.Context, principal *models.User, tokenString string) error {
	claims, err := s.issuer.ParseEmailConfirmation(tokenString)
	if err != nil {
		telemetry.EmailConfirmationsTotal.WithLabelValues("token", "invalid").Inc()
		return ErrInvalidToken
	}

	if claims.Email != principal.Email || claims.UserID != principal.ID {
		telemetry.EmailConfirmationsTotal.WithLabelValues("token", "mismatch").Inc()
		return ErrTokenMismatch
	}

	if principal.EmailVerificationToken == nil || *principal.EmailVerificationToken != tokenString {
		telemetry.EmailConfirmationsTotal.WithLabelValues("token", "invalid").Inc()
		return ErrNotFound
	}

	if err := s.users.MarkEmailVerified(ctx, principal.ID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	telemetry.EmailConfirmationsTotal.WithLabelValues("token", "confirmed").Inc()
	return nil
}
