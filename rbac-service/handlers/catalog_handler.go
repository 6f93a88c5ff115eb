package handlers

import (
	"github.com/gin-gonic/gin"
)

// ListModules returns the permission catalog grouped by module
// @Summary List modules with their permissions
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /roles/permissions/modules [get]
func (h *Handler) ListModules(c *gin.Context) {
	modules, err := h.svc.Catalog.ListModules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, modules)
}

// ListAllPermissions returns every catalog permission, ordered by module then permission
// @Summary List all permissions
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /roles/permissions/all [get]
func (h *Handler) ListAllPermissions(c *gin.Context) {
	permissions, err := h.svc.Catalog.ListAllPermissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, permissions)
}
