package routes

import (
	"github.com/gin-gonic/gin"
	productcontroller "github.com/junaidrashid-git/storefront-api/controllers/product"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
)

// SetupProductRoutes: browsing is public, changes need an admin token.
func SetupProductRoutes(api *gin.RouterGroup, s Services) {
	products := api.Group("/products")
	{
		products.GET("", productcontroller.GetProducts(s.Catalog))
		products.GET("/:id", productcontroller.GetProductByID(s.Catalog))
		products.GET("/category/:category", productcontroller.GetProductsByCategory(s.Catalog))
	}

	productAdmin := api.Group("/products", middleware.ValidateToken(s.Tokens), middleware.LoadRole(s.Auth), middleware.RequireRole(models.RoleAdmin))
	{
		productAdmin.POST("", productcontroller.CreateProduct(s.Catalog, s.UploadsDir))
		productAdmin.PUT("/:id", productcontroller.UpdateProduct(s.Catalog, s.UploadsDir))
		productAdmin.DELETE("/:id", productcontroller.DeleteProduct(s.Catalog))
	}
}
