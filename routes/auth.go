package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
)

// SetupAuthRoutes registers the public /api/auth endpoints.
func SetupAuthRoutes(api *gin.RouterGroup, s Services) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", auth.Register(s.Auth))
		authGroup.POST("/login", auth.Login(s.Auth))
	}
}
