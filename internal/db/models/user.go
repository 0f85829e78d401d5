// Package models - user.go defines the User model for Fest accounts linked to an
// external identity provider, along with the enriched profile view returned to clients.
package models

import "time"

// User represents a user in the system. Auth0ID and GoogleID hold the
// provider-specific subject; at least one is set once the account has been
// reconciled against the identity provider.
type User struct {
	ID                           string     `json:"id"`
	Auth0ID                      *string    `json:"auth0Id,omitempty"`
	GoogleID                     *string    `json:"googleId,omitempty"`
	Email                        string     `json:"email"`
	EmailVerified                bool       `json:"emailVerified"`
	EmailVerificationCode        *string    `json:"-"`
	EmailVerificationToken       *string    `json:"-"`
	EmailVerificationCodeExpires *time.Time `json:"-"`
	EmailVerificationLinkSent    bool       `json:"emailVerificationLinkSent"`
	FullName                     *string    `json:"fullName,omitempty"`
	Avatar                       *string    `json:"avatar,omitempty"`
	CurrentOrganizationID        *string    `json:"currentOrganizationId,omitempty"`
	CreatedAt                    time.Time  `json:"createdAt"`
	UpdatedAt                    time.Time  `json:"updatedAt"`
}

// UserProfile is the transformed shape returned on every authenticated
// response: the user's own fields plus their organizations (each merged with
// the membership role) and the resolved current organization.
type UserProfile struct {
	User
	Organizations       []MembershipWithOrganization `json:"organizations"`
	CurrentOrganization *Organization                `json:"currentOrganization,omitempty"`
}

// MemberOf reports whether the user belongs to the given organization.
func (p *UserProfile) MemberOf(organizationID string) bool {
	for _, m := range p.Organizations {
		if m.OrganizationID == organizationID {
			return true
		}
	}
	return false
}
