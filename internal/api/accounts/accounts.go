// Package accounts implements the /auth endpoints: profile retrieval,
// first-login account provisioning, profile updates, and the email
// confirmation flow.
package accounts

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fest-dev/fest/internal/api/respond"
	"github.com/fest-dev/fest/internal/auth"
	"github.com/fest-dev/fest/internal/db/repositories"
	"github.com/fest-dev/fest/internal/middleware"
	"github.com/fest-dev/fest/internal/services"
	"github.com/fest-dev/fest/internal/tokens"
)

// Handlers handles account management and email confirmation endpoints
type Handlers struct {
	users        *repositories.UserRepository
	reconciler   *auth.Reconciler
	verification *services.EmailVerificationService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(db *sql.DB, issuer *tokens.Issuer, mailer services.ConfirmationMailer) *Handlers {
	users := repositories.NewUserRepository(db)
	return &Handlers{
		users:        users,
		reconciler:   auth.NewReconciler(users),
		verification: services.NewEmailVerificationService(users, issuer, mailer),
	}
}

// @Summary      Get current user
// @Description  Return the caller's profile with organization memberships and current organization, or null when the verified identity has no local account yet.
// @Tags         Auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  models.UserProfile  "Profile, or null when no account exists"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /auth/me [get]
// MeHandler returns the caller's profile
// GET /auth/me
func (h *Handlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := middleware.CurrentUser(c)
		if !ok {
			// A verified identity without an account is not an error: the
			// client reads the null and routes into account creation.
			c.JSON(http.StatusOK, nil)
			return
		}

		c.JSON(http.StatusOK, profile)
	}
}

type createUserRequest struct {
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// @Summary      Create user from identity
// @Description  Provision a local account for the verified identity token, or return the existing one. Google-federated identities start with a verified email.
// @Tags         Auth
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  createUserRequest  false  "Optional profile fields"
// @Success      200  {object}  models.UserProfile
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /auth/create-user-based-on-auth0-user [post]
// CreateFromIdentityHandler provisions the caller's local account
// POST /auth/create-user-based-on-auth0-user
func (h *Handlers) CreateFromIdentityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		assertion, ok := middleware.CurrentAssertion(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		// Body is optional; its fields fill gaps the identity token leaves.
		var req createUserRequest
		_ = c.ShouldBindJSON(&req)
		if assertion.Name == "" {
			assertion.Name = req.FullName
		}
		if assertion.Picture == "" {
			assertion.Picture = req.Avatar
		}

		user, err := h.reconciler.Resolve(c.Request.Context(), assertion)
		if err != nil {
			respond.Error(c, err)
			return
		}

		profile, err := h.users.GetProfile(c.Request.Context(), user.ID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, profile)
	}
}

type updateUserRequest struct {
	Email                 *string `json:"email"`
	FullName              *string `json:"fullName"`
	Avatar                *string `json:"avatar"`
	CurrentOrganizationID *string `json:"currentOrganizationId"`
}

// @Summary      Update user
// @Description  Update the caller's own profile fields. Only the account owner may update.
// @Tags         Auth
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "User ID"
// @Param        request  body  updateUserRequest  true  "Fields to update"
// @Success      200  {object}  models.UserProfile
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      403  {object}  map[string]interface{}  "Not the account owner"
// @Router       /auth/update/{id} [patch]
// UpdateHandler updates the caller's profile
// PATCH /auth/update/:id
func (h *Handlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		if c.Param("id") != profile.ID {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Cannot update another user",
			})
			return
		}

		var req updateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		user := profile.User
		if req.Email != nil {
			user.Email = *req.Email
		}
		if req.FullName != nil {
			user.FullName = req.FullName
		}
		if req.Avatar != nil {
			user.Avatar = req.Avatar
		}
		if req.CurrentOrganizationID != nil {
			user.CurrentOrganizationID = req.CurrentOrganizationID
		}

		if err := h.users.UpdateUser(c.Request.Context(), &user); err != nil {
			respond.Error(c, err)
			return
		}

		updated, err := h.users.GetProfile(c.Request.Context(), user.ID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// @Summary      Send confirmation email
// @Description  Generate a fresh confirmation code and link token and email them to the caller. Re-sending invalidates previous codes and links.
// @Tags         Auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      403  {object}  map[string]interface{}  "Email already verified"
// @Failure      502  {object}  map[string]interface{}  "Mail delivery failed"
// @Router       /auth/send-email-confirmation [post]
// SendEmailConfirmationHandler issues a confirmation code and link
// POST /auth/send-email-confirmation
func (h *Handlers) SendEmailConfirmationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		if err := h.verification.Issue(c.Request.Context(), &profile.User); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Confirmation email sent",
		})
	}
}

type confirmCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// @Summary      Confirm email by code
// @Description  Verify the caller's email using the short code from the confirmation email.
// @Tags         Auth
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  confirmCodeRequest  true  "Confirmation code"
// @Success      200  {object}  models.UserProfile
// @Failure      400  {object}  map[string]interface{}  "Invalid code"
// @Failure      401  {object}  map[string]interface{}  "Code expired"
// @Router       /auth/confirm-email-code [post]
// ConfirmEmailCodeHandler redeems a confirmation code
// POST /auth/confirm-email-code
func (h *Handlers) ConfirmEmailCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		var req confirmCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Confirmation code is required",
			})
			return
		}

		if err := h.verification.ConfirmByCode(c.Request.Context(), &profile.User, req.Code); err != nil {
			respond.Error(c, err)
			return
		}

		updated, err := h.users.GetProfile(c.Request.Context(), profile.ID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

type confirmTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// @Summary      Confirm email by token
// @Description  Verify the caller's email using the signed token from the confirmation link.
// @Tags         Auth
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  confirmTokenRequest  true  "Confirmation token"
// @Success      200  {object}  models.UserProfile
// @Failure      400  {object}  map[string]interface{}  "Invalid or mismatched token"
// @Router       /auth/confirm-email-token [post]
// ConfirmEmailTokenHandler redeems a confirmation link token
// POST /auth/confirm-email-token
func (h *Handlers) ConfirmEmailTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		var req confirmTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Confirmation token is required",
			})
			return
		}

		if err := h.verification.ConfirmByToken(c.Request.Context(), &profile.User, req.Token); err != nil {
			respond.Error(c, err)
			return
		}

		updated, err := h.users.GetProfile(c.Request.Context(), profile.ID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}
