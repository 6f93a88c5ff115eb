package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrms-backend/shared/services"
	"hrms-backend/shared/utils/query"
)

// CreateRoleRequest represents request body for creating role
type CreateRoleRequest struct {
	OrganizationID *uuid.UUID `json:"organization_id"`
	RoleName       string     `json:"role_name"`
	RoleKey        string     `json:"role_key"`
	Description    string     `json:"description"`
	IsActive       *bool      `json:"is_active"`
}

// UpdateRoleRequest represents request body for updating role; omitted fields are unchanged
type UpdateRoleRequest struct {
	RoleName    *string `json:"role_name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
	Version     *int    `json:"version"`
}

// RoleListResponse represents a list of roles with pagination
type RoleListResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Items      []services.RoleDetail    `json:"items"`
		Pagination query.PaginationResponse `json:"pagination"`
	} `json:"data"`
}

// SingleRoleResponse represents a single role response
type SingleRoleResponse struct {
	Success bool                `json:"success"`
	Data    services.RoleDetail `json:"data"`
}

// ListRoles retrieves roles with pagination and filtering
// @Summary List roles
// @Description System roles first, then by name. Non-SuperAdmin callers only see their own organization.
// @Tags roles
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Items per page (default: 10, max: 100)"
// @Param search query string false "Search across role_name and role_key"
// @Param filters[organization_id] query string false "Filter by organization ID"
// @Param filters[is_active] query string false "Filter by active flag (true, false)"
// @Param filters[is_system_role] query string false "Filter by system flag (true, false)"
// @Param sort[field] query string false "Sort field (role_name, role_key, created_at, updated_at)"
// @Param sort[order] query string false "Sort order (asc, desc)"
// @Security BearerAuth
// @Success 200 {object} handlers.RoleListResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Router /roles [get]
func (h *Handler) ListRoles(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}

	params := query.ParseQueryParams(c)
	filter := services.RoleFilter{
		Search:   params.Search,
		Sort:     params.Sort,
		Page:     params.Page,
		PageSize: params.PageSize,
	}

	if raw, ok := params.Filters["organization_id"]; ok {
		orgID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid organization_id filter"})
			return
		}
		filter.OrganizationID = &orgID
	}
	if v, ok := boolFilter(params.Filters, "is_active"); ok {
		filter.IsActive = &v
	}
	if v, ok := boolFilter(params.Filters, "is_system_role"); ok {
		filter.IsSystemRole = &v
	}

	roles, pagination, err := h.svc.Roles.ListRoles(c.Request.Context(), scope, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"items":      roles,
		"pagination": pagination,
	})
}

func boolFilter(filters map[string]string, name string) (bool, bool) {
	raw, ok := filters[name]
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// GetRole retrieves a role with its counts and grants
// @Summary Get role by ID
// @Tags roles
// @Produce json
// @Param id path string true "Role ID"
// @Security BearerAuth
// @Success 200 {object} handlers.SingleRoleResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /roles/{id} [get]
func (h *Handler) GetRole(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}
	roleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	role, err := h.svc.Roles.GetRole(c.Request.Context(), scope, roleID, true)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, role)
}

// CreateRole creates a custom role
// @Summary Create role
// @Description role_key is derived from role_name when omitted. The organization defaults to the caller's.
// @Tags roles
// @Accept json
// @Produce json
// @Param role body CreateRoleRequest true "Role data"
// @Security BearerAuth
// @Success 201 {object} handlers.SingleRoleResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Failure 422 {object} handlers.ErrorResponse
// @Router /roles [post]
func (h *Handler) CreateRole(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}

	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	role, err := h.svc.Roles.CreateRole(c.Request.Context(), scope, services.CreateRoleInput{
		OrganizationID: req.OrganizationID,
		RoleName:       req.RoleName,
		RoleKey:        req.RoleKey,
		Description:    req.Description,
		IsActive:       req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": role})
}

// UpdateRole updates a custom role
// @Summary Update role
// @Description System roles are read-only. Pass version to reject stale writes.
// @Tags roles
// @Accept json
// @Produce json
// @Param id path string true "Role ID"
// @Param role body UpdateRoleRequest true "Role data"
// @Security BearerAuth
// @Success 200 {object} handlers.SingleRoleResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Failure 422 {object} handlers.ErrorResponse
// @Router /roles/{id} [put]
func (h *Handler) UpdateRole(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}
	roleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	role, err := h.svc.Roles.UpdateRole(c.Request.Context(), scope, roleID, services.UpdateRoleInput{
		RoleName:    req.RoleName,
		Description: req.Description,
		IsActive:    req.IsActive,
		Version:     req.Version,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, role)
}

// DeleteRole deletes a custom role with its grants and memberships
// @Summary Delete role
// @Tags roles
// @Produce json
// @Param id path string true "Role ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /roles/{id} [delete]
func (h *Handler) DeleteRole(c *gin.Context) {
	scope, ok := scopeFor(c)
	if !ok {
		return
	}
	roleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Roles.DeleteRole(c.Request.Context(), scope, roleID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Role deleted successfully",
	})
}
