// reconcile.go maps verified external identities onto local user accounts.
// The invariant maintained here is one account per email address, no matter
// how many Auth0 connections the person signs in through.
package auth

import (
	"context"
	"fmt"

	"github.com/fest-dev/fest/internal/db/models"
	"github.com/fest-dev/fest/internal/db/repositories"
)

// Reconciler resolves an Assertion to exactly one local user, creating or
// linking accounts as needed.
type Reconciler struct {
	users *repositories.UserRepository
}

// NewReconciler creates a Reconciler backed by the user repository
func NewReconciler(users *repositories.UserRepository) *Reconciler {
	return &Reconciler{users: users}
}

// Resolve finds or creates the local account for the asserted identity:
//
//  1. Look up by the provider-specific subject column. A match is returned
//     as-is.
//  2. Otherwise look up by email. A match means the person previously signed
//     in through the other connection; the new subject is linked to the same
//     row. Linking a federated identity also marks the email verified and
//     discards any pending confirmation code or token, since the provider
//     has proven address ownership.
//  3. Otherwise create the account. Federated signups start verified;
//     password signups start unverified.
func (r *Reconciler) Resolve(ctx context.Context, assertion *Assertion) (*models.User, error) {
	if assertion.Email == "" {
		return nil, fmt.Errorf("assertion missing email")
	}

	user, err := r.lookupBySubject(ctx, assertion)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user, err = r.users.GetUserByEmail(ctx, assertion.Email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if err := r.users.LinkProviderID(ctx, user.ID, providerColumn(assertion.Provider), assertion.Subject); err != nil {
			return nil, fmt.Errorf("failed to link provider identity: %w", err)
		}
		// Re-read so the returned record reflects the link (and, for
		// federated links, the verified flag).
		return r.users.GetUserByID(ctx, user.ID)
	}

	newUser := &models.User{
		Email:         assertion.Email,
		EmailVerified: assertion.Provider.Federated(),
	}
	if assertion.Name != "" {
		name := assertion.Name
		newUser.FullName = &name
	}
	if assertion.Picture != "" {
		picture := assertion.Picture
		newUser.Avatar = &picture
	}
	subject := assertion.Subject
	switch assertion.Provider {
	case ProviderGoogle:
		newUser.GoogleID = &subject
	default:
		newUser.Auth0ID = &subject
	}

	if err := r.users.CreateUser(ctx, newUser); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// LookupBySubject finds the account already linked to the asserted subject,
// or nil when none exists. Used by the request middleware, which must not
// create accounts as a side effect of authentication.
func (r *Reconciler) LookupBySubject(ctx context.Context, assertion *Assertion) (*models.User, error) {
	return r.lookupBySubject(ctx, assertion)
}

func (r *Reconciler) lookupBySubject(ctx context.Context, assertion *Assertion) (*models.User, error) {
	switch assertion.Provider {
	case ProviderGoogle:
		return r.users.GetUserByGoogleID(ctx, assertion.Subject)
	default:
		return r.users.GetUserByAuth0ID(ctx, assertion.Subject)
	}
}

func providerColumn(p Provider) string {
	if p == ProviderGoogle {
		return "google_id"
	}
	return "auth0_id"
}
