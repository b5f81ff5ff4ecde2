package prompt

import (
	"prompt-library-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /prompts. The group is expected to run OptionalAuth
// already, so reads and usage tracking see the caller when a token is sent.
func RegisterRoutes(router *gin.RouterGroup, h *Handler, authn *middleware.Authenticator) {
	prompts := router.Group("/prompts")
	{
		prompts.GET("", h.ListPrompts)
		prompts.GET("/:id", h.GetPrompt)
		prompts.POST("/:id/use", h.TrackUsage)

		authed := prompts.Group("")
		authed.Use(authn.RequireAuth())
		{
			authed.POST("", h.CreatePrompt)
			authed.PUT("/:id", h.UpdatePrompt)
			authed.DELETE("/:id", h.DeletePrompt)
			authed.POST("/:id/review", h.AddReview)
		}
	}
}
