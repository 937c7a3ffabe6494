package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	userControllers "github.com/junaidrashid-git/storefront-api/controllers/user"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// SetupUserRoutes registers the caller's profile endpoints. Requires a token.
func SetupUserRoutes(api *gin.RouterGroup, s Services) {
	userGroup := api.Group("/users", middleware.ValidateToken(s.Tokens))
	{
		userGroup.GET("/me", userControllers.GetUser(s.DB))
		userGroup.PUT("/me", userControllers.UpdateUser(s.DB))
	}
}

// SetupCartRoutes registers /api/cart. Requires a token.
func SetupCartRoutes(api *gin.RouterGroup, s Services) {
	cartGroup := api.Group("/cart", middleware.ValidateToken(s.Tokens))
	{
		cartGroup.GET("", cartControllers.GetUserCart(s.Cart))
		cartGroup.POST("/add-to-cart", cartControllers.AddToCart(s.Cart))
		cartGroup.DELETE("/:productId", cartControllers.DeleteCartItem(s.Cart))
		cartGroup.DELETE("", cartControllers.ClearUserCart(s.Cart))
	}
}
