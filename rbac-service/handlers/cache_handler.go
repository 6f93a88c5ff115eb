package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) cacheAvailable(c *gin.Context) bool {
	if h.cache == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Cache manager not available"})
		return false
	}
	return true
}

// GetCacheStats returns cache statistics
// @Summary Get cache statistics
// @Description SuperAdmin only; the capability cache spans every organization.
// @Tags cache
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Cache statistics"
// @Failure 403 {object} map[string]interface{} "SuperAdmin access required"
// @Failure 503 {object} handlers.ErrorResponse "Cache manager not available"
// @Router /access/cache/stats [get]
func (h *Handler) GetCacheStats(c *gin.Context) {
	if !h.cacheAvailable(c) {
		return
	}

	stats, err := h.cache.GetCacheStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to get cache stats",
			Message: err.Error(),
		})
		return
	}

	respondOK(c, gin.H{
		"cache_stats": stats,
		"service":     "rbac",
	})
}

// InvalidateUserCache drops every cached decision of one user
// @Summary Invalidate user capability cache
// @Description SuperAdmin only; the capability cache spans every organization.
// @Tags cache
// @Produce json
// @Param user_id path string true "User ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse "Invalid user ID"
// @Failure 403 {object} map[string]interface{} "SuperAdmin access required"
// @Failure 503 {object} handlers.ErrorResponse "Cache manager not available"
// @Router /access/cache/invalidate/user/{user_id} [post]
func (h *Handler) InvalidateUserCache(c *gin.Context) {
	if !h.cacheAvailable(c) {
		return
	}
	userID, ok := parseUUIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.cache.InvalidateUser(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to invalidate user capabilities",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User capabilities invalidated",
		"user_id": userID,
	})
}

// InvalidateAllCache drops every cached decision
// @Summary Invalidate the whole capability cache
// @Description SuperAdmin only; the capability cache spans every organization.
// @Tags cache
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{} "SuperAdmin access required"
// @Failure 503 {object} handlers.ErrorResponse "Cache manager not available"
// @Router /access/cache/invalidate/all [post]
func (h *Handler) InvalidateAllCache(c *gin.Context) {
	if !h.cacheAvailable(c) {
		return
	}

	if err := h.cache.InvalidateAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to invalidate cache",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "All cached capabilities invalidated",
	})
}
