package middleware

import (
	"errors"
	"net/http"
	"prompt-library-backend/internal/models"
	"prompt-library-backend/internal/services"
	"prompt-library-backend/internal/utils"
	"prompt-library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userKey   = "user"
	claimsKey = "claims"
	tokenKey  = "token"
)

// Authenticator verifies bearer tokens. OptionalAuth attaches the user when a
// valid token is present and never fails; RequireAuth rejects the request
// with 401 otherwise.
type Authenticator struct {
	auth *services.AuthService
}

func NewAuthenticator(auth *services.AuthService) *Authenticator {
	return &Authenticator{auth: auth}
}

func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := utils.ExtractToken(c)
		if err != nil {
			c.Next()
			return
		}

		if user, claims, err := a.auth.Verify(c.Request.Context(), tokenString); err == nil {
			setIdentity(c, user, claims, tokenString)
		}
		c.Next()
	}
}

func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}

		tokenString, err := utils.ExtractToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Error: "Access token required", Message: err.Error()})
			return
		}

		user, claims, err := a.auth.Verify(c.Request.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenRevoked):
				c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse("Token has been revoked"))
			case errors.Is(err, utils.ErrInvalidToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse("Invalid or expired token"))
			case errors.Is(err, services.ErrUserNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse("User not found"))
			default:
				logger.Log.Error("Failed to verify token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to check token status"))
			}
			return
		}

		setIdentity(c, user, claims, tokenString)
		c.Next()
	}
}

func setIdentity(c *gin.Context, user *models.User, claims *utils.Claims, token string) {
	c.Set(userKey, user)
	c.Set(claimsKey, claims)
	c.Set(tokenKey, token)
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// CurrentUserID is nil for anonymous callers.
func CurrentUserID(c *gin.Context) *string {
	if user, ok := CurrentUser(c); ok {
		return &user.ID
	}
	return nil
}

// CurrentToken returns the verified raw token and its claims.
func CurrentToken(c *gin.Context) (string, *utils.Claims, bool) {
	token := c.GetString(tokenKey)
	v, ok := c.Get(claimsKey)
	if !ok || token == "" {
		return "", nil, false
	}
	claims, ok := v.(*utils.Claims)
	return token, claims, ok
}

// SetUser attaches an identity directly; handler tests use it in place of a
// token.
func SetUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
}
