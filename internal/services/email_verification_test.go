package services

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fest-dev/fest/internal/config"
	"github.com/fest-dev/fest/internal/db/models"
	"github.com/fest-dev/fest/internal/db/repositories"
	"github.com/fest-dev/fest/internal/tokens"
)

var userCols = []string{
	"id", "auth0_id", "google_id", "email", "email_verified",
	"email_verification_code", "email_verification_token", "email_verification_code_expires",
	"email_verification_link_sent", "full_name", "avatar", "current_organization_id",
	"created_at", "updated_at",
}

func testTokensConfig() config.TokensConfig {
	return config.TokensConfig{
		EmailConfirmationSecret: "confirmation-secret",
		EmailConfirmationTTL:    24 * time.Hour,
		InvitationSecret:        "invitation-secret",
		InvitationTTL:           720 * time.Hour,
		ConfirmationCodeTTL:     time.Hour,
		ConfirmationCodeLength:  6,
	}
}

// fakeConfirmationMailer records the last confirmation email and optionally fails.
type fakeConfirmationMailer struct {
	to    string
	code  string
	token string
	err   error
}

func (f *fakeConfirmationMailer) SendEmailConfirmation(_ context.Context, to, code, token string) error {
	f.to, f.code, f.token = to, code, token
	return f.err
}

func newVerificationService(t *testing.T, mailer ConfirmationMailer) (*EmailVerificationService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	issuer := tokens.NewIssuer(testTokensConfig())
	return NewEmailVerificationService(repositories.NewUserRepository(db), issuer, mailer), mock
}

func unverifiedUser() *models.User {
	return &models.User{
		ID:    "user-1",
		Email: "alice@example.com",
	}
}

// ---------------------------------------------------------------------------
// Issue
// ---------------------------------------------------------------------------

func TestIssue_SendsCodeAndToken(t *testing.T) {
	mailer := &fakeConfirmationMailer{}
	svc, mock := newVerificationService(t, mailer)

	mock.ExpectExec("UPDATE users.*email_verification_code").
		WithArgs("user-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.Issue(context.Background(), unverifiedUser())
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", mailer.to)
	assert.Len(t, mailer.code, 6)
	assert.NotEmpty(t, mailer.token)

	// The emailed token must be redeemable against the same issuer.
	issuer := tokens.NewIssuer(testTokensConfig())
	claims, err := issuer.ParseEmailConfirmation(mailer.token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestIssue_AlreadyVerified(t *testing.T) {
	mailer := &fakeConfirmationMailer{}
	svc, _ := newVerificationService(t, mailer)

	user := unverifiedUser()
	user.EmailVerified = true

	err := svc.Issue(context.Background(), user)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
	assert.Empty(t, mailer.to, "no email should be sent")
}

// A failed send must not touch the stored pair: whatever was delivered by the
// previous email stays redeemable.
func TestIssue_MailFailureLeavesStateUntouched(t *testing.T) {
	mailer := &fakeConfirmationMailer{err: errors.New("postmark down")}
	svc, mock := newVerificationService(t, mailer)

	err := svc.Issue(context.Background(), unverifiedUser())
	assert.ErrorIs(t, err, ErrMailDelivery)
	assert.NoError(t, mock.ExpectationsWereMet(), "no write should reach the database")
}

// ---------------------------------------------------------------------------
// ConfirmByCode
// ---------------------------------------------------------------------------

func userRowWithCode(code string, expires time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow("user-1", nil, nil, "alice@example.com", false,
			code, "stored-token", expires,
			true, nil, nil, nil,
			time.Now(), time.Now())
}

func TestConfirmByCode_Success(t *testing.T) {
	svc, mock := newVerificationService(t, &fakeConfirmationMailer{})

	mock.ExpectQuery("SELECT.*FROM users.*email_verification_code").
		WithArgs("alice@example.com", "AB12CD").
		WillReturnRows(userRowWithCode("AB12CD", time.Now().Add(30*time.Minute)))
	mock.ExpectExec("UPDATE users.*email_verified = TRUE").
		WithArgs("user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.ConfirmByCode(context.Background(), unverifiedUser(), "AB12CD")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmByCode_WrongCode(t *testing.T) {
	svc, mock := newVerificationService(t, &fakeConfirmationMailer{})

	mock.ExpectQuery("SELECT.*FROM users.*email_verification_code").
		WithArgs("alice@example.com", "WRONG1").
		WillReturnRows(sqlmock.NewRows(userCols))

	err := svc.ConfirmByCode(context.Background(), unverifiedUser(), "WRONG1")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestConfirmByCode_Expired(t *testing.T) {
	svc, mock := newVerificationService(t, &fakeConfirmationMailer{})

	mock.ExpectQuery("SELECT.*FROM users.*email_verification_code").
		WithArgs("alice@example.com", "AB12CD").
		WillReturnRows(userRowWithCode("AB12CD", time.Now().Add(-time.Minute)))

	err := svc.ConfirmByCode(context.Background(), unverifiedUser(), "AB12CD")
	assert.ErrorIs(t, err, ErrCodeExpired)
}

// ---------------------------------------------------------------------------
// ConfirmByToken
// ---------------------------------------------------------------------------

func TestConfirmByToken_Success(t *testing.T) {
	svc, mock := newVerificationService(t, &fakeConfirmationMailer{})

	issuer := tokens.NewIssuer(testTokensConfig())
	token, err := issuer.SignEmailConfirmation("user-1", "alice@example.com")
	require.NoError(t, err)

	principal := unverifiedUser()
	principal.EmailVerificationToken = &token

	mock.ExpectExec("UPDATE users.*email_verified = TRUE").
		WithArgs("user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.ConfirmByToken(context.Background(), principal, token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmByToken_Malformed(t *testing.T) {
	svc, _ := newVerificationService(t, &fakeConfirmationMailer{})

	err := svc.ConfirmByToken(context.Background(), unverifiedUser(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConfirmByToken_BelongsToAnotherAccount(t *testing.T) {
	svc, _ := newVerificationService(t, &fakeConfirmationMailer{})

	issuer := tokens.NewIssuer(testTokensConfig())
	token, err := issuer.SignEmailConfirmation("user-2", "mallory@example.com")
	require.NoError(t, err)

	err = svc.ConfirmByToken(context.Background(), unverifiedUser(), token)
	assert.ErrorIs(t, err, ErrTokenMismatch)
}

// A token from a previous send is valid JWT-wise but no longer stored, so it
// must not confirm the account.
func TestConfirmByToken_Superseded(t *testing.T) {
	svc, _ := newVerificationService(t, &fakeConfirmationMailer{})

	issuer := tokens.NewIssuer(testTokensConfig())
	oldToken, err := issuer.SignEmailConfirmation("user-1", "alice@example.com")
	require.NoError(t, err)

	newToken := "a-different-stored-token"
	principal := unverifiedUser()
	principal.EmailVerificationToken = &newToken

	err = svc.ConfirmByToken(context.Background(), principal, oldToken)
	assert.ErrorIs(t, err, ErrNotFound)
}
