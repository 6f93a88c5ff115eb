package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrms-backend/shared/database/models"
	shared "hrms-backend/shared/middleware"
)

const requestIDHeader = "X-Request-ID"

// UnifiedResponse represents the standard API response format
type UnifiedResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string      `json:"code"`
	Details string      `json:"details"`
	Fields  interface{} `json:"fields,omitempty"`
}

// MetaInfo represents response metadata
type MetaInfo struct {
	RequestID     string `json:"request_id"`
	Timestamp     string `json:"timestamp"`
	ExecutionTime string `json:"execution_time"`
	Method        string `json:"method"`
	Path          string `json:"path"`
}

// AuditRecorder receives one entry per served request
type AuditRecorder interface {
	Record(entry models.AuditLog)
}

// responseWriter buffers the upstream response so it can be rewritten
type responseWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *responseWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
}

func (w *responseWriter) Status() int {
	return w.status
}

// WriteHeaderNow and Flush are no-ops until the rewritten body is sent
func (w *responseWriter) WriteHeaderNow() {}

func (w *responseWriter) Flush() {}

// UnifiedResponseMiddleware wraps every response in UnifiedResponse and hands an
// audit entry to audit once the request has been served. audit may be nil.
func UnifiedResponseMiddleware(audit AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Request.Header.Set(requestIDHeader, requestID)
		c.Header(requestIDHeader, requestID)

		if shouldSkipUnifiedResponse(c) {
			c.Next()
			recordAudit(c, audit, c.Writer.Status(), requestID, time.Since(startTime))
			return
		}

		original := c.Writer
		w := &responseWriter{
			ResponseWriter: original,
			body:           &bytes.Buffer{},
			status:         http.StatusOK,
		}
		c.Writer = w

		c.Next()

		executionTime := time.Since(startTime)
		statusCode := w.status

		unified := transformToUnifiedResponse(c, w.body.Bytes(), statusCode, requestID, executionTime)

		c.Writer = original
		original.Header().Del("Content-Length")
		original.Header().Set("Content-Type", "application/json; charset=utf-8")
		original.WriteHeader(statusCode)
		_ = json.NewEncoder(original).Encode(unified)

		recordAudit(c, audit, statusCode, requestID, executionTime)
	}
}

// transformToUnifiedResponse converts the original body to the unified format
func transformToUnifiedResponse(c *gin.Context, body []byte, statusCode int, requestID string, executionTime time.Duration) UnifiedResponse {
	isSuccess := statusCode >= 200 && statusCode < 300

	unified := UnifiedResponse{
		Success: isSuccess,
		Message: getAutoMessage(c.Request.Method, statusCode, isSuccess),
		Meta: &MetaInfo{
			RequestID:     requestID,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			ExecutionTime: fmt.Sprintf("%dms", executionTime.Milliseconds()),
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
		},
	}

	var originalData interface{}
	decoded := len(body) > 0 && json.Unmarshal(body, &originalData) == nil
	fields, _ := originalData.(map[string]interface{})

	if isSuccess {
		if !decoded {
			return unified
		}
		unified.Data = originalData
		if fields != nil {
			if data, exists := fields["data"]; exists {
				unified.Data = data
			}
			// Use custom message if provided
			if msg, ok := fields["message"].(string); ok && msg != "" {
				unified.Message = msg
			}
		}
		return unified
	}

	errInfo := &ErrorInfo{Code: getErrorCode(statusCode), Details: strings.TrimSpace(string(body))}
	if fields != nil {
		if code, ok := fields["code"].(string); ok && code != "" {
			errInfo.Code = code
		}
		if errMsg, exists := fields["error"]; exists {
			errInfo.Details = fmt.Sprintf("%v", errMsg)
		}
		if msg, ok := fields["message"].(string); ok && msg != "" {
			errInfo.Details = msg
		}
		errInfo.Fields = fields["fields"]
	}
	unified.Error = errInfo
	return unified
}

// getAutoMessage generates appropriate success/error messages
func getAutoMessage(method string, statusCode int, isSuccess bool) string {
	if isSuccess {
		switch method {
		case http.MethodPost:
			return "Record created successfully"
		case http.MethodPut, http.MethodPatch:
			return "Record updated successfully"
		case http.MethodDelete:
			return "Record deleted successfully"
		case http.MethodGet:
			return "Data retrieved successfully"
		default:
			return "Operation completed successfully"
		}
	}

	switch statusCode {
	case http.StatusBadRequest:
		return "Invalid request data"
	case http.StatusUnauthorized:
		return "Authentication required"
	case http.StatusForbidden:
		return "Permission denied"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusConflict:
		return "Resource was modified or already exists"
	case http.StatusUnprocessableEntity:
		return "Validation failed"
	case http.StatusTooManyRequests:
		return "Too many requests"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "Upstream service unavailable"
	case http.StatusInternalServerError:
		return "Internal server error"
	default:
		return "Operation failed"
	}
}

// getErrorCode generates error codes based on status
func getErrorCode(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "UPSTREAM_UNAVAILABLE"
	case http.StatusInternalServerError:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// recordAudit builds the entry on the request goroutine; persistence is up to audit
func recordAudit(c *gin.Context, audit AuditRecorder, statusCode int, requestID string, executionTime time.Duration) {
	if audit == nil {
		return
	}

	entry := models.AuditLog{
		Method:     c.Request.Method,
		Path:       c.Request.URL.Path,
		Module:     c.GetString("module"),
		Action:     c.GetString("action"),
		StatusCode: statusCode,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		Duration:   executionTime.Milliseconds(),
		RequestID:  requestID,
	}
	if session, ok := shared.SessionFromContext(c); ok {
		userID := session.UserID()
		orgID := session.OrganizationID()
		entry.UserID = &userID
		entry.OrganizationID = &orgID
	}

	audit.Record(entry)
}

// shouldSkipUnifiedResponse checks if the request path should skip unified response format
func shouldSkipUnifiedResponse(c *gin.Context) bool {
	path := c.Request.URL.Path

	excludePaths := []string{
		"/swagger",
		"/docs",
		"/health",
	}

	for _, excludePath := range excludePaths {
		if strings.HasPrefix(path, excludePath) {
			return true
		}
	}

	// Requests issued from the Swagger UI keep the raw service format
	referer := c.Request.Header.Get("Referer")
	if strings.Contains(referer, "/swagger") || strings.Contains(referer, "/docs") {
		return true
	}

	return strings.Contains(c.Request.UserAgent(), "swagger-ui")
}
