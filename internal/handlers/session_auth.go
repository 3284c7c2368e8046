package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/session"
)

const sessionKey = "session"

// SessionAuthMiddleware resolves bearer session tokens issued by the session manager
type SessionAuthMiddleware struct {
	manager *session.Manager
}

func NewSessionAuthMiddleware(manager *session.Manager) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{manager: manager}
}

// AuthMiddleware requires a live session. The token comes from the Authorization
// header, or from the token query parameter for websocket upgrades.
func (sam *SessionAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		sess, err := sam.manager.Resolve(c.Request.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, session.ErrAccountBlocked) {
				status = http.StatusForbidden
			} else if !errors.Is(err, session.ErrSessionInvalid) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{
				"error":   "unauthorized",
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(sessionKey, sess)
		c.Set("user_id", sess.SubjectID())
		c.Set("user_role", sess.Role())

		c.Next()
	}
}

// RequireRoleMiddleware checks if the session has one of the required roles
func (sam *SessionAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "user role not found in context",
			})
			c.Abort()
			return
		}

		role, ok := userRole.(models.UserRole)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "invalid user role format",
			})
			c.Abort()
			return
		}

		for _, requiredRole := range requiredRoles {
			if role == requiredRole {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
		})
		c.Abort()
	}
}

// RequireSetupCompleteMiddleware keeps sessions still in profile setup away from
// dashboard features
func (sam *SessionAuthMiddleware) RequireSetupCompleteMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(sessionKey)
		if !exists {
			c.Next()
			return
		}
		if v.(*session.Session).View() == session.ViewProfileSetup {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "complete profile setup first",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", errors.New("authorization header missing")
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}
	return tokenParts[1], nil
}
