// invitation_repository.go implements InvitationRepository, providing database queries
// for the invitation lifecycle. Token lookup is always scoped by email and organization
// so a token can only redeem the invitation it was signed for.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fest-dev/fest/internal/db/models"
)

// InvitationRepository handles database operations for invitations
type InvitationRepository struct {
	db *sqlx.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// CreateInvitation inserts a new invitation row. Repeated invitations to the
// same email and organization are allowed; each carries its own token.
func (r *InvitationRepository) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	inv.ID = uuid.New().String()
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = time.Now()

	query := `
		INSERT INTO invitations (id, email, organization_id, inviter_id, token, invite_accepted, created_at, updated_at)
		VALUES (:id, :email, :organization_id, :inviter_id, :token, :invite_accepted, :created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

// GetByEmailOrgAndToken retrieves the invitation matching all three of email,
// organization, and token. An accepted invitation has its token cleared, so a
// consumed token simply matches no row.
func (r *InvitationRepository) GetByEmailOrgAndToken(ctx context.Context, email, organizationID, token string) (*models.Invitation, error) {
	query := `
		SELECT id, email, organization_id, inviter_id, token, invite_accepted, created_at, updated_at
		FROM invitations
		WHERE email = $1 AND organization_id = $2 AND token = $3
	`

	inv := &models.Invitation{}
	err := r.db.GetContext(ctx, inv, query, email, organizationID, token)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// MarkAccepted flags the invitation as accepted and clears the token in one
// statement, making the token unusable for any further validation.
func (r *InvitationRepository) MarkAccepted(ctx context.Context, invitationID string) error {
	query := `
		UPDATE invitations
		SET invite_accepted = TRUE, token = NULL, updated_at = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, invitationID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark invitation accepted: %w", err)
	}

	return nil
}

// ListByOrganization retrieves all invitations for an organization
func (r *InvitationRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*models.Invitation, error) {
	query := `
		SELECT id, email, organization_id, inviter_id, token, invite_accepted, created_at, updated_at
		FROM invitations
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`

	invitations := make([]*models.Invitation, 0)
	if err := r.db.SelectContext(ctx, &invitations, query, organizationID); err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	return invitations, nil
}
