package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hrms-backend/shared/utils/auth"
)

const sessionContextKey = "session"

// AuthMiddleware validates the bearer token and stores an immutable auth.Session
// in both the gin context and the request context.
func AuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		tokenString := ExtractTokenFromHeader(c.Request)
		if tokenString == "" {
			abortUnauthorized(c, "Invalid authorization format. Expected Bearer {token}")
			return
		}

		claims, err := issuer.ValidateJWT(tokenString)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		session, err := auth.NewSession(claims)
		if err != nil {
			abortUnauthorized(c, "Invalid identity in token")
			return
		}

		ctx := auth.WithSession(c.Request.Context(), session)
		ctx = auth.WithToken(ctx, tokenString)
		c.Request = c.Request.WithContext(ctx)
		c.Set(sessionContextKey, session)
		c.Set("user_id", session.UserID())

		c.Next()
	}
}

// SessionFromContext returns the session installed by AuthMiddleware
func SessionFromContext(c *gin.Context) (auth.Session, bool) {
	if v, ok := c.Get(sessionContextKey); ok {
		if s, ok := v.(auth.Session); ok {
			return s, true
		}
	}
	return auth.SessionFrom(c.Request.Context())
}

// ExtractTokenFromHeader extracts the token from the Authorization header
func ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return ""
	}

	return tokenParts[1]
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  "UNAUTHORIZED",
	})
}
