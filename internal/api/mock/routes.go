package mock

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.Engine) {
	router.GET("/health", Health)

	api := router.Group("/api")
	{
		api.GET("/prompts", ListPrompts)
		api.GET("/prompts/:id", GetPrompt)
		api.POST("/prompts", Echo)
		api.GET("/categories", ListCategories)
		api.POST("/categories", Echo)
		api.POST("/auth/login", Login)
		api.POST("/auth/signup", Signup)
		api.GET("/stats", GetStats)
	}
}
