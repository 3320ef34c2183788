package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/steadylab/steady/auth"
	apperrors "github.com/steadylab/steady/errors"
)

// Auth returns a Gin middleware that validates Bearer tokens with the JWT
// service. Validated claims are stored in both the Gin context and the
// request context.
func Auth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWith(c, apperrors.Unauthorized("Authorization header required."))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWith(c, apperrors.Unauthorized("Invalid authorization header format."))
			return
		}

		claims, err := svc.Parse(parts[1])
		if err != nil {
			if auth.IsExpired(err) {
				abortWith(c, apperrors.TokenExpired())
				return
			}
			abortWith(c, apperrors.InvalidToken())
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("roles", claims.Roles)
		c.Request = c.Request.WithContext(auth.ContextWithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// RequirePermission returns a Gin middleware enforcing RBAC. It must run
// after Auth.
func RequirePermission(checker auth.Checker, required auth.Permission) gin.HandlerFunc {
	if checker == nil {
		checker = auth.DefaultChecker
	}
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFromContext(c.Request.Context())
		if !ok {
			abortWith(c, apperrors.Unauthorized(""))
			return
		}
		if !checker.HasPermission(claims.Roles, required) {
			abortWith(c, apperrors.Forbidden("").WithDetail("required", string(required)))
			return
		}
		c.Next()
	}
}

// RequireRole returns a Gin middleware that only admits the given role. It
// must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFromContext(c.Request.Context())
		if !ok {
			abortWith(c, apperrors.Unauthorized(""))
			return
		}
		if !auth.HasRole(claims.Roles, role) {
			abortWith(c, apperrors.Forbidden("").WithDetail("required_role", role))
			return
		}
		c.Next()
	}
}

func abortWith(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
