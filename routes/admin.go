package routes

import (
	"github.com/gin-gonic/gin"
	adminController "github.com/junaidrashid-git/storefront-api/controllers/admin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	productcontroller "github.com/junaidrashid-git/storefront-api/controllers/product"
	userControllers "github.com/junaidrashid-git/storefront-api/controllers/user"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
)

// SetupAdminRoutes registers /api/admin. Every route needs an admin token.
func SetupAdminRoutes(api *gin.RouterGroup, s Services) {
	adminGroup := api.Group("/admin", middleware.ValidateToken(s.Tokens), middleware.LoadRole(s.Auth), middleware.RequireRole(models.RoleAdmin))
	{
		adminGroup.GET("/admins", adminController.GetAllAdmins(s.DB, s.Log))
		adminGroup.PUT("/role", adminController.SetUserRole(s.DB, s.Log))
		adminGroup.GET("/users", userControllers.GetAllUsers(s.DB))
		adminGroup.GET("/users/:user_id/cart", cartControllers.GetAdminUserCart(s.Cart))
		adminGroup.GET("/products/export-excel", productcontroller.ExportProductsToExcel(s.Catalog))
	}
}
