// Package repositories implements the data access layer (repository pattern) for the Fest backend.
// Each repository type encapsulates all database queries for a domain entity.
// Handlers never issue SQL directly — all database access goes through this layer, which makes query logic testable in isolation and prevents accidental cross-domain data access.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fest-dev/fest/internal/db/models"
)

// userColumns is the canonical column list scanned by scanUser. Keep the two in sync.
const userColumns = `id, auth0_id, google_id, email, email_verified,
	       email_verification_code, email_verification_token, email_verification_code_expires,
	       email_verification_link_sent, full_name, avatar, current_organization_id,
	       created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Auth0ID,
		&user.GoogleID,
		&user.Email,
		&user.EmailVerified,
		&user.EmailVerificationCode,
		&user.EmailVerificationToken,
		&user.EmailVerificationCodeExpires,
		&user.EmailVerificationLinkSent,
		&user.FullName,
		&user.Avatar,
		&user.CurrentOrganizationID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	query := `
		INSERT INTO users (id, auth0_id, google_id, email, email_verified,
		                   email_verification_code, email_verification_token, email_verification_code_expires,
		                   email_verification_link_sent, full_name, avatar, current_organization_id,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Auth0ID,
		user.GoogleID,
		user.Email,
		user.EmailVerified,
		user.EmailVerificationCode,
		user.EmailVerificationToken,
		user.EmailVerificationCodeExpires,
		user.EmailVerificationLinkSent,
		user.FullName,
		user.Avatar,
		user.CurrentOrganizationID,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, userID))
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetUserByAuth0ID retrieves a user by the Auth0 database-connection subject
func (r *UserRepository) GetUserByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE auth0_id = $1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, auth0ID))
}

// GetUserByGoogleID retrieves a user by the Google federated subject
func (r *UserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE google_id = $1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, googleID))
}

// GetUserByEmailAndCode retrieves a user matching both email and confirmation code.
// Scoping by email means a code can only confirm the account it was issued for.
func (r *UserRepository) GetUserByEmailAndCode(ctx context.Context, email, code string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND email_verification_code = $2
	`
	return scanUser(r.db.QueryRowContext(ctx, query, email, code))
}

// UpdateUser updates a user's mutable profile fields
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET email = $2, full_name = $3, avatar = $4, current_organization_id = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.Avatar,
		user.CurrentOrganizationID,
		user.UpdatedAt,
	)

	return err
}

// LinkProviderID attaches a provider subject to an existing account. For the
// google column the account is also marked verified and any pending
// confirmation state is cleared: a federated identity proves ownership of the
// email address, so an in-flight code or token must not remain usable.
func (r *UserRepository) LinkProviderID(ctx context.Context, userID, column, subject string) error {
	var query string
	switch column {
	case "google_id":
		query = `
			UPDATE users
			SET google_id = $2, email_verified = TRUE,
			    email_verification_code = NULL, email_verification_token = NULL,
			    email_verification_code_expires = NULL, updated_at = $3
			WHERE id = $1
		`
	default:
		query = `
			UPDATE users
			SET auth0_id = $2, updated_at = $3
			WHERE id = $1
		`
	}

	_, err := r.db.ExecContext(ctx, query, userID, subject, time.Now())
	return err
}

// SetVerificationState stores a freshly issued confirmation code and token
func (r *UserRepository) SetVerificationState(ctx context.Context, userID, code, token string, codeExpires time.Time) error {
	query := `
		UPDATE users
		SET email_verification_code = $2, email_verification_token = $3,
		    email_verification_code_expires = $4, email_verification_link_sent = TRUE,
		    updated_at = $5
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, userID, code, token, codeExpires, time.Now())
	return err
}

// MarkEmailVerified flips email_verified and clears the code, token, and expiry
// in one statement. Clearing all three cancels both confirmation paths at once.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET email_verified = TRUE,
		    email_verification_code = NULL, email_verification_token = NULL,
		    email_verification_code_expires = NULL, updated_at = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, userID, time.Now())
	return err
}

// SetCurrentOrganization updates the user's active organization
func (r *UserRepository) SetCurrentOrganization(ctx context.Context, userID, organizationID string) error {
	query := `
		UPDATE users
		SET current_organization_id = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, userID, organizationID, time.Now())
	return err
}

// DeleteUser deletes a user (cascades to memberships and invitations)
func (r *UserRepository) DeleteUser(ctx context.Context, userID string) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// GetProfile retrieves a user together with their organization memberships and
// resolved current organization. Returns nil when the user does not exist.
func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	user, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	query := `
		SELECT ou.organization_id, o.name, o.logo, ou.role, ou.assigned_at
		FROM organization_users ou
		JOIN organizations o ON ou.organization_id = o.id
		WHERE ou.user_id = $1
		ORDER BY ou.assigned_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]models.MembershipWithOrganization, 0)
	for rows.Next() {
		m := models.MembershipWithOrganization{}
		err := rows.Scan(
			&m.OrganizationID,
			&m.OrganizationName,
			&m.Logo,
			&m.Role,
			&m.AssignedAt,
		)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		User:          *user,
		Organizations: memberships,
	}

	// Attach the current organization from the memberships already in hand;
	// fall back to a direct lookup when the membership row is gone but the
	// pointer is still set.
	if user.CurrentOrganizationID != nil {
		for _, m := range memberships {
			if m.OrganizationID == *user.CurrentOrganizationID {
				profile.CurrentOrganization = &models.Organization{
					ID:   m.OrganizationID,
					Name: m.OrganizationName,
					Logo: m.Logo,
				}
				break
			}
		}
		if profile.CurrentOrganization == nil {
			org, err := r.getOrganizationByID(ctx, *user.CurrentOrganizationID)
			if err != nil {
				return nil, err
			}
			profile.CurrentOrganization = org
		}
	}

	return profile, nil
}

func (r *UserRepository) getOrganizationByID(ctx context.Context, organizationID string) (*models.Organization, error) {
	query := `
		SELECT id, name, logo, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	org := &models.Organization{}
	err := r.db.QueryRowContext(ctx, query, organizationID).Scan(
		&org.ID,
		&org.Name,
		&org.Logo,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return org, nil
}
