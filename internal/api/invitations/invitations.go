// Package invitations implements invitation creation and token redemption.
package invitations

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/fest-dev/fest/internal/api/respond"
	"github.com/fest-dev/fest/internal/db/repositories"
	"github.com/fest-dev/fest/internal/middleware"
	"github.com/fest-dev/fest/internal/services"
	"github.com/fest-dev/fest/internal/tokens"
)

// Handlers handles invitation endpoints
type Handlers struct {
	invitations *services.InvitationService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(db *sql.DB, issuer *tokens.Issuer, mailer services.InvitationMailer) *Handlers {
	users := repositories.NewUserRepository(db)
	orgs := repositories.NewOrganizationRepository(db)
	invitations := repositories.NewInvitationRepository(sqlx.NewDb(db, "postgres"))
	return &Handlers{
		invitations: services.NewInvitationService(invitations, users, orgs, issuer, mailer),
	}
}

type createInvitationRequest struct {
	Email          string `json:"email" binding:"required,email"`
	InviterID      string `json:"inviterId" binding:"required"`
	OrganizationID string `json:"organizationId" binding:"required"`
}

// @Summary      Invite to organization
// @Description  Sign a 30-day invitation token for the address, record the invitation, and email the invitee.
// @Tags         Invitations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  createInvitationRequest  true  "Invitation to send"
// @Success      201  {object}  map[string]interface{}  "message"
// @Failure      400  {object}  map[string]interface{}  "Invalid body"
// @Failure      403  {object}  map[string]interface{}  "inviterId does not match the caller"
// @Failure      502  {object}  map[string]interface{}  "Mail delivery failed"
// @Router       /invitations/create [post]
// CreateHandler sends an organization invitation
// POST /invitations/create
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		var req createInvitationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "email, inviterId, and organizationId are required",
			})
			return
		}

		if req.InviterID != profile.ID {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Cannot send invitations on behalf of another user",
			})
			return
		}

		if _, err := h.invitations.Create(c.Request.Context(), req.InviterID, req.Email, req.OrganizationID); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "success",
		})
	}
}

type validateTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// @Summary      Validate invitation token
// @Description  Check an invitation token and return its claims. Validation consumes the token: the invitation is marked accepted and the same token cannot validate again.
// @Tags         Invitations
// @Accept       json
// @Produce      json
// @Param        request  body  validateTokenRequest  true  "Token to validate"
// @Success      200  {object}  tokens.InvitationClaims
// @Failure      400  {object}  map[string]interface{}  "Malformed or expired token"
// @Failure      404  {object}  map[string]interface{}  "Unknown or already-used token"
// @Router       /invitations/validate-token [post]
// ValidateTokenHandler redeems an invitation token
// POST /invitations/validate-token
func (h *Handlers) ValidateTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req validateTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Token is required",
			})
			return
		}

		claims, err := h.invitations.ValidateToken(c.Request.Context(), req.Token)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, claims)
	}
}
