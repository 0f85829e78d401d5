package auth

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/fest-dev/fest/internal/db/repositories"
)

var userCols = []string{
	"id", "auth0_id", "google_id", "email", "email_verified",
	"email_verification_code", "email_verification_token", "email_verification_code_expires",
	"email_verification_link_sent", "full_name", "avatar", "current_organization_id",
	"created_at", "updated_at",
}

func userRow(id string, auth0ID, googleID *string, email string, verified bool) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(id, auth0ID, googleID, email, verified,
			nil, nil, nil,
			false, nil, nil, nil,
			time.Now(), time.Now())
}

func emptyUserRows() *sqlmock.Rows {
	return sqlmock.NewRows(userCols)
}

func newReconciler(t *testing.T) (*Reconciler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewReconciler(repositories.NewUserRepository(db)), mock
}

func strPtr(s string) *string { return &s }

func TestResolve_ExistingBySubject(t *testing.T) {
	r, mock := newReconciler(t)

	mock.ExpectQuery("SELECT.*FROM users.*WHERE google_id").
		WithArgs("google-oauth2|123").
		WillReturnRows(userRow("user-1", nil, strPtr("google-oauth2|123"), "alice@example.com", true))

	user, err := r.Resolve(context.Background(), &Assertion{
		Subject:  "google-oauth2|123",
		Provider: ProviderGoogle,
		Email:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.ID != "user-1" {
		t.Fatalf("user = %v, want user-1", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// A Google sign-in for an email that already has a password account must link
// the Google subject onto the existing row, not create a second account.
func TestResolve_LinksSecondProviderByEmail(t *testing.T) {
	r, mock := newReconciler(t)

	mock.ExpectQuery("SELECT.*FROM users.*WHERE google_id").
		WithArgs("google-oauth2|123").
		WillReturnRows(emptyUserRows())
	mock.ExpectQuery("SELECT.*FROM users.*WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(userRow("user-1", strPtr("auth0|abc"), nil, "alice@example.com", false))
	mock.ExpectExec("UPDATE users.*google_id").
		WithArgs("user-1", "google-oauth2|123", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs("user-1").
		WillReturnRows(userRow("user-1", strPtr("auth0|abc"), strPtr("google-oauth2|123"), "alice@example.com", true))

	user, err := r.Resolve(context.Background(), &Assertion{
		Subject:  "google-oauth2|123",
		Provider: ProviderGoogle,
		Email:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.GoogleID == nil || *user.GoogleID != "google-oauth2|123" {
		t.Fatalf("expected linked google id, got %+v", user)
	}
	if !user.EmailVerified {
		t.Error("linking a federated identity should leave the account verified")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolve_CreatesFederatedUserVerified(t *testing.T) {
	r, mock := newReconciler(t)

	mock.ExpectQuery("SELECT.*FROM users.*WHERE google_id").
		WithArgs("google-oauth2|123").
		WillReturnRows(emptyUserRows())
	mock.ExpectQuery("SELECT.*FROM users.*WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(emptyUserRows())
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := r.Resolve(context.Background(), &Assertion{
		Subject:  "google-oauth2|123",
		Provider: ProviderGoogle,
		Email:    "alice@example.com",
		Name:     "Alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !user.EmailVerified {
		t.Error("federated signup should start verified")
	}
	if user.GoogleID == nil || *user.GoogleID != "google-oauth2|123" {
		t.Errorf("GoogleID = %v, want google-oauth2|123", user.GoogleID)
	}
	if user.FullName == nil || *user.FullName != "Alice" {
		t.Errorf("FullName = %v, want Alice", user.FullName)
	}
}

func TestResolve_CreatesPasswordUserUnverified(t *testing.T) {
	r, mock := newReconciler(t)

	mock.ExpectQuery("SELECT.*FROM users.*WHERE auth0_id").
		WithArgs("auth0|abc").
		WillReturnRows(emptyUserRows())
	mock.ExpectQuery("SELECT.*FROM users.*WHERE email").
		WithArgs("bob@example.com").
		WillReturnRows(emptyUserRows())
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := r.Resolve(context.Background(), &Assertion{
		Subject:  "auth0|abc",
		Provider: ProviderAuth0,
		Email:    "bob@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.EmailVerified {
		t.Error("password signup should start unverified")
	}
	if user.Auth0ID == nil || *user.Auth0ID != "auth0|abc" {
		t.Errorf("Auth0ID = %v, want auth0|abc", user.Auth0ID)
	}
}

func TestResolve_MissingEmail(t *testing.T) {
	r, _ := newReconciler(t)

	_, err := r.Resolve(context.Background(), &Assertion{
		Subject:  "auth0|abc",
		Provider: ProviderAuth0,
	})
	if err == nil {
		t.Error("expected error for assertion without email")
	}
}
