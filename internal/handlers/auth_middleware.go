package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fees-service/internal/services"
)

// PrincipalProvider resolves a bearer token to a student id.
type PrincipalProvider interface {
	StudentFromToken(ctx context.Context, token string) (uint, error)
}

const studentIDKey = "studentId"

// AuthMiddleware rejects requests without a valid bearer token and stashes
// the resolved student id on the context.
func AuthMiddleware(provider PrincipalProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authentication required",
			})
			return
		}

		studentID, err := provider.StudentFromToken(c.Request.Context(), token)
		if err != nil {
			status := http.StatusInternalServerError
			message := "Authentication failed"
			if err == services.ErrUnauthenticated {
				status = http.StatusUnauthorized
				message = "Invalid or expired session"
			}
			c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
			return
		}

		c.Set(studentIDKey, studentID)
		c.Next()
	}
}

// StudentID returns the authenticated student id set by AuthMiddleware.
func StudentID(c *gin.Context) uint {
	if v, ok := c.Get(studentIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
