// Package models - organization_member.go defines models for user-to-organization
// membership, including the role and the enriched view joining organization details.
package models

import "time"

// Membership roles. Admin is assigned to the creator of an organization;
// Member to everyone who joins through an invitation.
const (
	RoleAdmin  = "Admin"
	RoleMember = "Member"
)

// OrganizationMember represents a user's membership in an organization
type OrganizationMember struct {
	UserID         string    `json:"userId"`
	OrganizationID string    `json:"organizationId"`
	Role           string    `json:"role"`
	AssignedAt     time.Time `json:"assignedAt"`
}

// MembershipWithOrganization merges a membership row with the organization it
// refers to. This is the per-organization entry in the profile payload.
type MembershipWithOrganization struct {
	OrganizationID   string    `json:"id"`
	OrganizationName string    `json:"name"`
	Logo             *string   `json:"logo,omitempty"`
	Role             string    `json:"role"`
	AssignedAt       time.Time `json:"assignedAt"`
}

// OrganizationMemberWithUser includes user details for member listings
type OrganizationMemberWithUser struct {
	UserID         string    `json:"userId"`
	OrganizationID string    `json:"organizationId"`
	Role           string    `json:"role"`
	AssignedAt     time.Time `json:"assignedAt"`
	UserEmail      string    `json:"userEmail"`
	UserFullName   *string   `json:"userFullName,omitempty"`
}
