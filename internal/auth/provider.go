// Package auth verifies Auth0-issued bearer tokens and reconciles external
// identities with local user accounts.
package auth

import "strings"

// Provider identifies which Auth0 connection a subject came from.
type Provider string

const (
	// ProviderAuth0 is the Auth0 database (email/password) connection
	ProviderAuth0 Provider = "auth0"
	// ProviderGoogle is the google-oauth2 federated connection
	ProviderGoogle Provider = "google"
)

// googleSubjectPrefix is the connection prefix Auth0 puts on federated Google
// subjects (e.g. "google-oauth2|1234567890").
const googleSubjectPrefix = "google-oauth2|"

// ProviderFromSubject determines the provider from the token subject. Any
// subject without the Google prefix is treated as the database connection.
func ProviderFromSubject(sub string) Provider {
	if strings.HasPrefix(sub, googleSubjectPrefix) {
		return ProviderGoogle
	}
	return ProviderAuth0
}

// Federated reports whether the provider proves email ownership by itself.
// A federated login means the identity provider has already verified the
// address, so no confirmation email is needed.
func (p Provider) Federated() bool {
	return p == ProviderGoogle
}
