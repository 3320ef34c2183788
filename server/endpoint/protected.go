package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steadylab/steady/auth"
	apperrors "github.com/steadylab/steady/errors"
	"github.com/steadylab/steady/server"
)

// Protected returns a handler that echoes the authenticated principal. It
// must be mounted behind the Auth middleware.
func Protected() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFromContext(c.Request.Context())
		if !ok {
			server.RespondWithError(c, apperrors.Unauthorized(""))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"subject":     claims.Subject,
			"roles":       claims.Roles,
			"permissions": auth.PermissionsFor(claims.Roles),
			"expires_at":  claims.ExpiresAt,
		})
	}
}
