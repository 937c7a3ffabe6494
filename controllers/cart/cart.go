package cartControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/response"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/services/cart"
	"github.com/shopspring/decimal"
)

type CartItemInput struct {
	ProductID       uint             `json:"productId" binding:"required"`
	Quantity        int              `json:"quantity" binding:"required,min=1"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice" binding:"required"`
}

// POST /api/cart/add-to-cart
func AddToCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		updated, err := svc.AddItem(c.Request.Context(), middleware.UserID(c), input.ProductID, input.Quantity, *input.DiscountedPrice)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item added to cart", "cart": updated})
	}
}

// DELETE /api/cart/:productId
func DeleteCartItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
		if err != nil || productID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}

		updated, emptied, err := svc.RemoveItem(c.Request.Context(), middleware.UserID(c), uint(productID))
		if err != nil {
			response.Error(c, err)
			return
		}
		if emptied {
			c.JSON(http.StatusOK, gin.H{"message": "Item removed, cart is now empty", "emptied": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart", "cart": updated})
	}
}

// DELETE /api/cart
func ClearUserCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Clear(c.Request.Context(), middleware.UserID(c)); err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
	}
}

// GET /api/cart
func GetUserCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCart, err := svc.Get(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, userCart)
	}
}

// GET /api/admin/users/:user_id/cart
func GetAdminUserCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
		if err != nil || userID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}

		userCart, err := svc.Get(c.Request.Context(), uint(userID))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, userCart)
	}
}
