// Package tokens issues and verifies the short-lived credentials used by the
// email confirmation and invitation flows: HS256-signed JWTs plus random
// alphanumeric confirmation codes.
//
// The two token kinds are signed with separate secrets so an email-confirmation
// token can never be presented as an invitation token or vice versa.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fest-dev/fest/internal/config"
)

const issuerName = "fest-backend"

// EmailConfirmationClaims is the payload of an email-confirmation token. The
// user ID and email are both embedded so verification can check the token was
// issued to the presenting account.
type EmailConfirmationClaims struct {
	Email  string `json:"email"`
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// InvitationClaims is the payload of an invitation token. It carries enough
// context for the frontend to render the invitation without a second request.
type InvitationClaims struct {
	InviterID        string `json:"inviterId"`
	InviterEmail     string `json:"inviterEmail"`
	OrganizationID   string `json:"organizationId"`
	OrganizationName string `json:"organizationName"`
	Email            string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer signs and parses both token kinds using the configured secrets and
// lifetimes. Secrets are validated at config load, so a zero-value secret
// never reaches this type in a running server.
type Issuer struct {
	cfg config.TokensConfig
}

// NewIssuer creates an Issuer from the token configuration
func NewIssuer(cfg config.TokensConfig) *Issuer {
	return &Issuer{cfg: cfg}
}

// CodeTTL returns the configured confirmation code lifetime
func (i *Issuer) CodeTTL() time.Duration {
	return i.cfg.ConfirmationCodeTTL
}

// CodeLength returns the configured confirmation code length
func (i *Issuer) CodeLength() int {
	return i.cfg.ConfirmationCodeLength
}

// SignEmailConfirmation creates an email-confirmation token for the given user
func (i *Issuer) SignEmailConfirmation(userID, email string) (string, error) {
	now := time.Now()
	claims := &EmailConfirmationClaims{
		Email:  email,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.EmailConfirmationTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuerName,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(i.cfg.EmailConfirmationSecret))
}

// ParseEmailConfirmation parses and validates an email-confirmation token.
// Any signature, format, or expiry failure is returned as an error; callers
// treat them uniformly as an invalid token.
func (i *Issuer) ParseEmailConfirmation(tokenString string) (*EmailConfirmationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &EmailConfirmationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(i.cfg.EmailConfirmationSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*EmailConfirmationClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	return claims, nil
}

// SignInvitation creates an invitation token
func (i *Issuer) SignInvitation(claims InvitationClaims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.InvitationTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuerName,
		Subject:   claims.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString([]byte(i.cfg.InvitationSecret))
}

// ParseInvitation parses and validates an invitation token
func (i *Issuer) ParseInvitation(tokenString string) (*InvitationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &InvitationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(i.cfg.InvitationSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*InvitationClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	return claims, nil
}
