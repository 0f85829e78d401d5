// Package models - organization.go defines the Organization model representing a tenant
// workspace with a globally unique name and an optional logo URL.
package models

import "time"

// Organization represents a tenant organization
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Logo      *string   `json:"logo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
