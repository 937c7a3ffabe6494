package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
)

func SetupOrderRoutes(api *gin.RouterGroup, s Services) {
	orders := api.Group("/orders", middleware.ValidateToken(s.Tokens), middleware.LoadRole(s.Auth))
	admin := middleware.RequireRole(models.RoleAdmin)
	{
		orders.POST("", orderControllers.CreateOrder(s.Orders))
		orders.GET("/my-orders", orderControllers.GetMyOrders(s.Orders))

		orders.GET("", admin, orderControllers.GetAllOrders(s.Orders))
		orders.GET("/export", admin, orderControllers.ExportOrders(s.Orders))

		// live feed of order events
		orders.GET("/ws", admin, orderControllers.OrderWebSocketHandler(s.OrderFeed, orderControllers.NewUpgrader(s.AllowedOrigins)))

		orders.GET("/:id", orderControllers.GetOrder(s.Orders))
		orders.PUT("/:id", admin, orderControllers.UpdateOrderStatus(s.Orders))
		orders.DELETE("/:id", admin, orderControllers.DeleteOrder(s.Orders))
	}
}
