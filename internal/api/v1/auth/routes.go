package auth

import (
	"prompt-library-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /auth. limiter guards the credential endpoints.
func RegisterRoutes(router *gin.RouterGroup, h *Handler, authn *middleware.Authenticator, limiter gin.HandlerFunc) {
	auth := router.Group("/auth")
	auth.POST("/signup", limiter, h.Signup)
	auth.POST("/login", limiter, h.Login)
	auth.POST("/logout", authn.RequireAuth(), h.Logout)
	auth.GET("/me", authn.RequireAuth(), h.Me)
}
