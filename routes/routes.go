package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/services/cart"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/junaidrashid-git/storefront-api/services/order"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Services is everything the route groups hand to their controllers.
type Services struct {
	DB             *gorm.DB
	Tokens         *auth.TokenMaker
	Auth           *auth.Service
	Catalog        *catalog.Store
	Cart           *cart.Service
	Orders         *order.Service
	OrderFeed      *events.Hub
	UploadsDir     string
	AllowedOrigins []string
	Log            zerolog.Logger
}

// SetupRoutes is the single entry point that wires every /api route group.
func SetupRoutes(r *gin.Engine, s Services) {
	api := r.Group("/api")

	SetupAuthRoutes(api, s)
	SetupProductRoutes(api, s)
	SetupUserRoutes(api, s)
	SetupCartRoutes(api, s)
	SetupOrderRoutes(api, s)
	SetupAdminRoutes(api, s)
}
