// Package models - invitation.go defines the Invitation model. The token column is
// cleared when the invitation is accepted, which is what makes invitation tokens
// single-use: a consumed token no longer matches any row.
package models

import "time"

// Invitation represents a pending or accepted organization invitation
type Invitation struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	InviterID      string    `json:"inviterId" db:"inviter_id"`
	Token          *string   `json:"-" db:"token"`
	InviteAccepted bool      `json:"inviteAccepted" db:"invite_accepted"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}
