package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"auction-marketplace/internal/auctionerrors"
	"auction-marketplace/internal/identity"
	"auction-marketplace/services/auction/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key holding the authenticated caller's
// user ID. Handlers read it instead of any process-wide session state.
const ContextUserID = "user_id"

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// AuthMiddleware verifies the Bearer token and stamps the caller's user
// ID onto the request context
func AuthMiddleware(tokens *identity.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			utils.JSONError(c, http.StatusUnauthorized, nil, "missing bearer token")
			c.Abort()
			return
		}

		userID, err := tokens.Verify(tokenString)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, err, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// RequireAdmin rejects callers without admin privileges. Must run after
// AuthMiddleware.
func RequireAdmin(registry *identity.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if !registry.IsAdmin(userID) {
			err := fmt.Errorf("server: user %s: %w", userID, auctionerrors.ErrNotAdmin)
			status, message := helpers.MapErrorToHTTP(err)
			utils.JSONError(c, status, err, message)
			c.Abort()
			return
		}
		c.Next()
	}
}
