// verifier.go validates Auth0 bearer tokens against the tenant JWKS using
// OIDC discovery. Verification is pure token inspection: no Auth0 management
// API calls are made on the request path.
package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/fest-dev/fest/internal/config"
)

// Assertion is the identity extracted from a verified bearer token.
type Assertion struct {
	Subject  string
	Provider Provider
	Email    string
	Name     string
	Picture  string
}

// Verifier checks Auth0-issued JWTs. It wraps go-oidc's JWKS-backed verifier,
// which caches the tenant signing keys and refreshes them on rotation.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the Auth0 tenant's OIDC configuration and builds a
// token verifier bound to the API audience. The context bounds the discovery
// request only; verification itself is offline.
func NewVerifier(ctx context.Context, cfg *config.Auth0Config) (*Verifier, error) {
	if cfg.Domain == "" {
		return nil, fmt.Errorf("auth0 domain is required")
	}
	if cfg.Audience == "" {
		return nil, fmt.Errorf("auth0 audience is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL())
	if err != nil {
		return nil, fmt.Errorf("failed to discover auth0 tenant: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: cfg.Audience,
	})

	return &Verifier{verifier: verifier}, nil
}

// Verify validates the raw bearer token and extracts the caller's identity.
// The subject claim is required; email, name, and picture are carried when
// the token includes them (Auth0 access tokens often omit profile claims).
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Assertion, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify bearer token: %w", err)
	}

	var claims struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}

	if claims.Sub == "" {
		return nil, fmt.Errorf("token missing 'sub' claim")
	}

	return &Assertion{
		Subject:  claims.Sub,
		Provider: ProviderFromSubject(claims.Sub),
		Email:    claims.Email,
		Name:     claims.Name,
		Picture:  claims.Picture,
	}, nil
}
