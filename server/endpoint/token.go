package endpoint

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steadylab/steady/auth"
	apperrors "github.com/steadylab/steady/errors"
	"github.com/steadylab/steady/logger"
	"github.com/steadylab/steady/server"
)

// TokenRequest is the login payload.
type TokenRequest struct {
	Username string `json:"username" binding:"required,min=1,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	Token     string   `json:"token"`
	TokenType string   `json:"token_type"`
	Roles     []string `json:"roles"`
}

// Token returns a handler that exchanges credentials for a signed JWT.
func Token(svc *auth.Service, store *auth.UserStore) gin.HandlerFunc {
	log := logger.Get("auth")
	return func(c *gin.Context) {
		var req TokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			server.RespondWithError(c, apperrors.InvalidInput("", "username and password are required"))
			return
		}

		roles, err := store.Authenticate(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				log.Warn("login failed", logger.Fields("username", req.Username))
				server.RespondWithError(c, apperrors.Unauthorized("Invalid username or password."))
				return
			}
			server.RespondWithError(c, err)
			return
		}

		token, err := svc.Generate(req.Username, roles)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}

		log.Info("token issued", logger.Fields("username", req.Username, "roles", roles))
		c.JSON(http.StatusOK, TokenResponse{
			Token:     token,
			TokenType: "Bearer",
			Roles:     roles,
		})
	}
}
