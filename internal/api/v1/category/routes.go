package category

import (
	"prompt-library-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /categories. Creation stays open to anonymous
// callers; update and delete require a token.
func RegisterRoutes(router *gin.RouterGroup, h *Handler, authn *middleware.Authenticator) {
	categories := router.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.POST("", h.CreateCategory)
		categories.PUT("/:id", authn.RequireAuth(), h.UpdateCategory)
		categories.DELETE("/:id", authn.RequireAuth(), h.DeleteCategory)
	}
}
