package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrms-backend/shared/middleware"
	"hrms-backend/shared/services"
	"hrms-backend/shared/utils/auth"
	"hrms-backend/shared/utils/cache"
	"hrms-backend/shared/utils/routeaccess"
	"hrms-backend/shared/utils/validation"
)

// Deps is everything the rbac-service handlers need
type Deps struct {
	Services *services.Services
	Issuer   *auth.TokenIssuer
	Routes   *routeaccess.Evaluator
	// Cache may be nil when redis is unavailable
	Cache *cache.CacheManager
}

type Handler struct {
	svc    *services.Services
	routes *routeaccess.Evaluator
	cache  *cache.CacheManager
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		svc:    deps.Services,
		routes: deps.Routes,
		cache:  deps.Cache,
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message,omitempty"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

// scopeFor derives the tenant scope of the caller. SuperAdmin sees every organization.
func scopeFor(c *gin.Context) (services.Scope, bool) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return services.Scope{}, false
	}
	return services.Scope{
		OrganizationID:   session.OrganizationID(),
		AllOrganizations: session.IsSuperAdmin(),
	}, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid " + name,
			Message: name + " must be a valid UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request body",
		Message: err.Error(),
		Fields:  validation.Translate(err),
	})
}

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
			Fields:  verr.Fields,
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found", Message: err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden", Message: err.Error()})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Conflict", Message: err.Error()})
	default:
		log.Printf("❌ %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
