package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AssignUserRequest attaches a user to a role
type AssignUserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// ListRoleUsers returns the members of a role
// @Summary List role members
// @Tags role-users
// @Produce json
// @Param id path string true "Role ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} handlers.ErrorResponse
// @Router /roles/{id}/users [get]
func (h *Handler) ListRoleUsers(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}
	roleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	users, err := h.svc.UserRoles.ListUsersForRole(c.Request.Context(), scope, roleID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, users)
}

// ListAvailableUsers returns active users of the role's organization who are not members yet
// @Summary List users assignable to a role
// @Tags role-users
// @Produce json
// @Param id path string true "Role ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} handlers.ErrorResponse
// @Router /roles/{id}/available-users [get]
func (h *Handler) ListAvailableUsers(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}
	roleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	users, err := h.svc.UserRoles.ListAvailableUsers(c.Request.Context(), scope, roleID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, users)
}

// AssignUser adds a user to a role. Assigning twice is a no-op.
// @Summary Assign role to user
// @Tags role-users
// @Accept json
// @Produce json
// @Param id path string true "Role ID"
// @Param body body AssignUserRequest true "User"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 422 {object} handlers.ErrorResponse
// @Router /roles/{id}/users [post]
func (h *Handler) AssignUser(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}
	roleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req AssignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.svc.UserRoles.AssignRoleToUser(c.Request.Context(), scope, req.UserID, roleID); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"role_id": roleID,
		"user_id": req.UserID,
	})
}

// RemoveUser detaches a user from a role. Removing a missing assignment succeeds.
// @Summary Remove role from user
// @Tags role-users
// @Produce json
// @Param id path string true "Role ID"
// @Param user_id path string true "User ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} handlers.ErrorResponse
// @Router /roles/{id}/users/{user_id} [delete]
func (h *Handler) RemoveUser(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}
	roleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := parseUUIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.svc.UserRoles.RemoveRoleFromUser(c.Request.Context(), scope, userID, roleID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User removed from role",
	})
}
