// Package organizations implements organization CRUD and the
// post-invitation membership endpoint.
package organizations

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/fest-dev/fest/internal/api/respond"
	"github.com/fest-dev/fest/internal/db/models"
	"github.com/fest-dev/fest/internal/db/repositories"
	"github.com/fest-dev/fest/internal/middleware"
	"github.com/fest-dev/fest/internal/services"
	"github.com/fest-dev/fest/internal/tokens"
)

// Handlers handles organization endpoints
type Handlers struct {
	orgs        *repositories.OrganizationRepository
	users       *repositories.UserRepository
	invitations *services.InvitationService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(db *sql.DB, issuer *tokens.Issuer, mailer services.InvitationMailer) *Handlers {
	orgs := repositories.NewOrganizationRepository(db)
	users := repositories.NewUserRepository(db)
	invitations := repositories.NewInvitationRepository(sqlx.NewDb(db, "postgres"))
	return &Handlers{
		orgs:        orgs,
		users:       users,
		invitations: services.NewInvitationService(invitations, users, orgs, issuer, mailer),
	}
}

type createOrganizationRequest struct {
	Name   string  `json:"name" binding:"required"`
	UserID string  `json:"userId" binding:"required"`
	Logo   *string `json:"logo"`
}

// @Summary      Create organization
// @Description  Create an organization. The creator becomes its Admin and it becomes their current organization. Names are unique.
// @Tags         Organizations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  createOrganizationRequest  true  "Organization to create"
// @Success      201  {object}  models.Organization
// @Failure      400  {object}  map[string]interface{}  "Name already taken or invalid body"
// @Failure      403  {object}  map[string]interface{}  "userId does not match the caller"
// @Router       /organizations/create [post]
// CreateHandler creates an organization with the caller as Admin
// POST /organizations/create
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		var req createOrganizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Organization name and userId are required",
			})
			return
		}

		if req.UserID != profile.ID {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Cannot create an organization for another user",
			})
			return
		}

		existing, err := h.orgs.GetByName(c.Request.Context(), req.Name)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if existing != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Organization name already taken",
			})
			return
		}

		org := &models.Organization{
			Name: req.Name,
			Logo: req.Logo,
		}
		if err := h.orgs.CreateOrganization(c.Request.Context(), org); err != nil {
			respond.Error(c, err)
			return
		}

		if err := h.orgs.AddMember(c.Request.Context(), org.ID, profile.ID, models.RoleAdmin); err != nil {
			respond.Error(c, err)
			return
		}

		if err := h.users.SetCurrentOrganization(c.Request.Context(), profile.ID, org.ID); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, org)
	}
}

type addMemberAfterInviteRequest struct {
	UserID         string `json:"userId" binding:"required"`
	OrganizationID string `json:"organizationId" binding:"required"`
	InviterEmail   string `json:"inviterEmail"`
}

// @Summary      Join organization after invitation
// @Description  Add the caller as a Member of the organization named in a redeemed invitation and switch their current organization to it. Notifies the inviter when their email is supplied.
// @Tags         Organizations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  addMemberAfterInviteRequest  true  "Membership to create"
// @Success      200  {object}  models.OrganizationMember
// @Failure      403  {object}  map[string]interface{}  "userId does not match the caller"
// @Failure      404  {object}  map[string]interface{}  "User or organization not found"
// @Router       /organizations/add-member-after-invite [post]
// AddMemberAfterInviteHandler adds the caller to an organization they were invited to
// POST /organizations/add-member-after-invite
func (h *Handlers) AddMemberAfterInviteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		var req addMemberAfterInviteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "userId and organizationId are required",
			})
			return
		}

		if req.UserID != profile.ID {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Cannot add another user to an organization",
			})
			return
		}

		member, err := h.invitations.AddMemberAfterInvite(c.Request.Context(), req.UserID, req.OrganizationID, req.InviterEmail)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, member)
	}
}

type updateOrganizationRequest struct {
	Name *string `json:"name"`
	Logo *string `json:"logo"`
}

// @Summary      Update organization
// @Description  Update an organization's name or logo. A new name must not collide with an existing organization.
// @Tags         Organizations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Organization ID"
// @Param        request  body  updateOrganizationRequest  true  "Fields to update"
// @Success      200  {object}  models.Organization
// @Failure      400  {object}  map[string]interface{}  "Name already taken or invalid body"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /organizations/update/{id} [patch]
// UpdateHandler updates an organization
// PATCH /organizations/update/:id
func (h *Handlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("id")

		org, err := h.orgs.GetByID(c.Request.Context(), orgID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if org == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Organization not found",
			})
			return
		}

		var req updateOrganizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		if req.Name != nil && *req.Name != org.Name {
			existing, err := h.orgs.GetByName(c.Request.Context(), *req.Name)
			if err != nil {
				respond.Error(c, err)
				return
			}
			if existing != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Organization name already taken",
				})
				return
			}
			org.Name = *req.Name
		}
		if req.Logo != nil {
			org.Logo = req.Logo
		}

		if err := h.orgs.Update(c.Request.Context(), org); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, org)
	}
}

// @Summary      Delete organization
// @Description  Delete an organization. Memberships and invitations are removed with it; members' current organization is cleared.
// @Tags         Organizations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Organization ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /organizations/delete/{id} [delete]
// DeleteHandler deletes an organization
// DELETE /organizations/delete/:id
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("id")

		org, err := h.orgs.GetByID(c.Request.Context(), orgID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if org == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Organization not found",
			})
			return
		}

		if err := h.orgs.Delete(c.Request.Context(), org.ID); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Organization deleted",
		})
	}
}
