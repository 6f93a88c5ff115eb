package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrms-backend/shared/services"
)

// AssignPermissionsRequest replaces the whole grant set of a role.
// Entries whose five flags are all false are dropped.
type AssignPermissionsRequest struct {
	RoleID      uuid.UUID                  `json:"role_id" binding:"required"`
	Version     *int                       `json:"version"`
	Permissions []services.PermissionGrant `json:"permissions" binding:"dive"`
}

// GetRolePermissions returns the stored grants of a role
// @Summary Get role permissions
// @Tags role-permissions
// @Produce json
// @Param id path string true "Role ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} handlers.ErrorResponse
// @Router /roles/{id}/permissions [get]
func (h *Handler) GetRolePermissions(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}
	roleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	grants, err := h.svc.RolePermissions.GetRolePermissions(c.Request.Context(), scope, roleID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, grants)
}

// AssignPermissions replaces the permission matrix of a custom role
// @Summary Assign permissions to role
// @Description Full replace. Unknown permission ids fail with 404 and leave the role unchanged.
// @Tags role-permissions
// @Accept json
// @Produce json
// @Param body body AssignPermissionsRequest true "Grant set"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Router /roles/assign-permissions [post]
func (h *Handler) AssignPermissions(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}

	var req AssignPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	role, err := h.svc.RolePermissions.AssignPermissions(ctx, scope, services.AssignPermissionsInput{
		RoleID:      req.RoleID,
		Version:     req.Version,
		Permissions: req.Permissions,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	grants, err := h.svc.RolePermissions.GetRolePermissions(ctx, scope, role.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"role":        role,
		"permissions": grants,
	})
}
