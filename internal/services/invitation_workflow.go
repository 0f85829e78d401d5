// invitation_workflow.go implements the organization invitation lifecycle.
// Tokens are single-use by construction: validating a token marks the
// invitation accepted and clears the stored token in the same step, so a
// second validation of the same token finds no matching row.
package services

import (
	"context"
	"fmt"

	"github.com/fest-dev/fest/internal/db/models"
	"github.com/fest-dev/fest/internal/db/repositories"
	"github.com/fest-dev/fest/internal/telemetry"
	"github.com/fest-dev/fest/internal/tokens"
)

// InvitationMailer delivers invitation-related emails. Satisfied by *mail.Sender.
type InvitationMailer interface {
	SendOrganizationInvitation(ctx context.Context, to, inviterEmail, organizationName, token string) error
	SendInviteAccepted(ctx context.Context, to, memberEmail, organizationName string) error
}

// InvitationService creates, validates, and redeems organization invitations.
type InvitationService struct {
	invitations *repositories.InvitationRepository
	users       *repositories.UserRepository
	orgs        *repositories.OrganizationRepository
	issuer      *tokens.Issuer
	mailer      InvitationMailer
}

// NewInvitationService creates an InvitationService
func NewInvitationService(
	invitations *repositories.InvitationRepository,
	users *repositories.UserRepository,
	orgs *repositories.OrganizationRepository,
	issuer *tokens.Issuer,
	mailer InvitationMailer,
) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		users:       users,
		orgs:        orgs,
		issuer:      issuer,
		mailer:      mailer,
	}
}

// Create signs a 30-day invitation token, stores the invitation, and emails
// the invitee. Repeated invitations to the same address and organization are
// allowed; each gets its own token and any of them can be redeemed.
func (s *InvitationService) Create(ctx context.Context, inviterID, email, organizationID string) (*models.Invitation, error) {
	inviter, err := s.users.GetUserByID(ctx, inviterID)
	if err != nil {
		return nil, err
	}
	if inviter == nil {
		return nil, fmt.Errorf("%w: inviter %s", ErrNotFound, inviterID)
	}

	org, err := s.orgs.GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("%w: organization %s", ErrNotFound, organizationID)
	}

	token, err := s.issuer.SignInvitation(tokens.InvitationClaims{
		InviterID:        inviter.ID,
		InviterEmail:     inviter.Email,
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Email:            email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign invitation token: %w", err)
	}

	inv := &models.Invitation{
		Email:          email,
		OrganizationID: org.ID,
		InviterID:      inviter.ID,
		Token:          &token,
	}
	if err := s.invitations.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	if err := s.mailer.SendOrganizationInvitation(ctx, email, inviter.Email, org.Name, token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	telemetry.InvitationsCreatedTotal.Inc()
	return inv, nil
}

// ValidateToken checks the token signature and matches it against a pending
// invitation. A match is consumed immediately: the invitation is marked
// accepted and its token cleared before the claims are returned, so the same
// token cannot validate twice. A consumed or never-issued token surfaces as
// ErrNotFound.
func (s *InvitationService) ValidateToken(ctx context.Context, tokenString string) (*tokens.InvitationClaims, error) {
	claims, err := s.issuer.ParseInvitation(tokenString)
	if err != nil {
		telemetry.InvitationTokenValidationsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidToken
	}

	inv, err := s.invitations.GetByEmailOrgAndToken(ctx, claims.Email, claims.OrganizationID, tokenString)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		telemetry.InvitationTokenValidationsTotal.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}

	if err := s.invitations.MarkAccepted(ctx, inv.ID); err != nil {
		return nil, fmt.Errorf("failed to consume invitation: %w", err)
	}

	telemetry.InvitationTokenValidationsTotal.WithLabelValues("accepted").Inc()
	return claims, nil
}

// AddMemberAfterInvite grants the user a Member role in the organization and
// switches their current organization to it, then notifies the inviter. The
// membership insert is skipped when the user already belongs, so redeeming an
// invitation to an organization one is already in cannot fail. The returned
// membership is the stored row, whether it was just created or already there.
func (s *InvitationService) AddMemberAfterInvite(ctx context.Context, userID, organizationID, inviterEmail string) (*models.OrganizationMember, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	org, err := s.orgs.GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("%w: organization %s", ErrNotFound, organizationID)
	}

	member, err := s.orgs.GetMember(ctx, org.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		if err := s.orgs.AddMember(ctx, org.ID, user.ID, models.RoleMember); err != nil {
			return nil, err
		}
		// Re-read so the returned row carries the database-assigned timestamp.
		member, err = s.orgs.GetMember(ctx, org.ID, user.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.users.SetCurrentOrganization(ctx, user.ID, org.ID); err != nil {
		return nil, err
	}

	if inviterEmail != "" {
		if err := s.mailer.SendInviteAccepted(ctx, inviterEmail, user.Email, org.Name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMailDelivery, err)
		}
	}

	return member, nil
}
