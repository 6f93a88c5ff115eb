package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrms-backend/shared/middleware"
	"hrms-backend/shared/services"
	"hrms-backend/shared/utils/permission"
)

const rolesModule = "roles"

// RouteAccessResponse is the result of a route evaluation for the caller
type RouteAccessResponse struct {
	Path     string `json:"path"`
	UserType string `json:"userType"`
	Allowed  bool   `json:"allowed"`
}

// CheckAccess checks one module/action pair
// @Summary Check a capability
// @Description Checks the caller, or user_id when given. Checking another user needs roles:read.
// @Tags access
// @Accept json
// @Produce json
// @Param check body permission.CheckRequest true "Capability check"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 422 {object} handlers.ErrorResponse
// @Router /access/check [post]
func (h *Handler) CheckAccess(c *gin.Context) {
	var req permission.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, ok := h.subject(c, req.UserID)
	if !ok {
		return
	}

	action, err := services.ParseAction(req.Action)
	if err != nil {
		respondError(c, err)
		return
	}

	allowed, err := h.svc.Capabilities.HasCapability(c.Request.Context(), userID, req.Module, string(action))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, permission.CheckResponse{
		Allowed: allowed,
		Module:  req.Module,
		Action:  string(action),
	})
}

// BatchCheckAccess checks up to 50 module/action pairs at once
// @Summary Check several capabilities
// @Tags access
// @Accept json
// @Produce json
// @Param batch body permission.BatchCheckRequest true "Capability checks"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 422 {object} handlers.ErrorResponse
// @Router /access/batch-check [post]
func (h *Handler) BatchCheckAccess(c *gin.Context) {
	var req permission.BatchCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, ok := h.subject(c, req.UserID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	results := make(map[string]bool, len(req.Checks))
	for _, check := range req.Checks {
		action, err := services.ParseAction(check.Action)
		if err != nil {
			respondError(c, err)
			return
		}
		allowed, err := h.svc.Capabilities.HasCapability(ctx, userID, check.Module, string(action))
		if err != nil {
			respondError(c, err)
			return
		}
		results[permission.ResultKey(check.Module, string(action))] = allowed
	}

	respondOK(c, permission.BatchCheckResponse{Results: results})
}

// subject resolves whose capabilities are checked. Anyone may check themselves;
// checking another user of a visible organization requires roles:read.
func (h *Handler) subject(c *gin.Context, requested *uuid.UUID) (uuid.UUID, bool) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return uuid.Nil, false
	}
	if requested == nil || *requested == uuid.Nil || *requested == session.UserID() {
		return session.UserID(), true
	}

	if !h.mayInspectUsers(c, session.UserID()) {
		return uuid.Nil, false
	}

	scope := services.Scope{OrganizationID: session.OrganizationID(), AllOrganizations: session.IsSuperAdmin()}
	if _, err := h.svc.UserRoles.FindUser(c.Request.Context(), scope, *requested); err != nil {
		respondError(c, err)
		return uuid.Nil, false
	}
	return *requested, true
}

func (h *Handler) mayInspectUsers(c *gin.Context, callerID uuid.UUID) bool {
	allowed, err := h.svc.Capabilities.HasCapability(c.Request.Context(), callerID, rolesModule, string(services.ActionRead))
	if err != nil {
		respondError(c, err)
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "Forbidden",
			Message: "roles:read is required to inspect other users",
		})
		return false
	}
	return true
}

// CheckRoute evaluates a frontend path against the caller's user type
// @Summary Check route access
// @Tags access
// @Produce json
// @Param path query string true "Frontend pathname"
// @Security BearerAuth
// @Success 200 {object} handlers.RouteAccessResponse
// @Router /access/route [get]
func (h *Handler) CheckRoute(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	path := c.Query("path")
	respondOK(c, RouteAccessResponse{
		Path:     path,
		UserType: session.UserType(),
		Allowed:  h.routes.CanAccessRoute(path, session.UserType()),
	})
}

// GetSession returns the caller's claims, allowed routes, roles and effective permissions
// @Summary Current session
// @Tags access
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /access/session [get]
func (h *Handler) GetSession(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	ctx := c.Request.Context()
	roles, err := h.svc.UserRoles.ListRolesForUser(ctx, session.UserID())
	if err != nil {
		respondError(c, err)
		return
	}
	grants, err := h.svc.Capabilities.EffectivePermissions(ctx, session.UserID())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"session":        session.View(),
		"allowed_routes": h.routes.AllowedRoutes(session.UserType()),
		"roles":          roles,
		"permissions":    grants,
	})
}

// GetUserCapabilities returns the roles and effective permissions of a user
// @Summary User capabilities
// @Tags access
// @Produce json
// @Param id path string true "User ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} handlers.ErrorResponse
// @Router /users/{id}/capabilities [get]
func (h *Handler) GetUserCapabilities(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}
	userID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := h.svc.UserRoles.FindUser(ctx, scope, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	roles, err := h.svc.UserRoles.ListRolesForUser(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	grants, err := h.svc.Capabilities.EffectivePermissions(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"user":        user,
		"roles":       roles,
		"permissions": grants,
	})
}
