package orderControllers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/response"
	"github.com/junaidrashid-git/storefront-api/errs"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/services/order"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// POST /api/orders
//
// 201 with the order on success. A 500 carries orderCreated so the client can
// tell a failed checkout from a stored order whose notification failed.
func CreateOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err)
			return
		}

		created, err := svc.Create(c.Request.Context(), middleware.UserID(c), req)
		if err != nil {
			var nerr *order.NotificationError
			if errors.As(err, &nerr) {
				_ = c.Error(err)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":        "Order created but the confirmation message could not be sent",
					"orderCreated": true,
					"order":        nerr.Order,
				})
				return
			}
			if status := errs.HTTPStatus(err); status >= http.StatusInternalServerError {
				_ = c.Error(err)
				c.JSON(status, gin.H{"error": "Failed to create order", "orderCreated": false})
				return
			}
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// GET /api/orders (admin)
func GetAllOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.List(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /api/orders/my-orders
func GetMyOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListForUser(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /api/orders/:id
func GetOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}

		o, err := svc.Get(c.Request.Context(), id, middleware.UserID(c), middleware.Role(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// PUT /api/orders/:id (admin)
func UpdateOrderStatus(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err)
			return
		}

		updated, err := svc.UpdateStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// DELETE /api/orders/:id (admin)
func DeleteOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), id); err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
	}
}

// GET /api/orders/export (admin)
func ExportOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var buf bytes.Buffer
		if err := svc.Export(c.Request.Context(), &buf); err != nil {
			response.Error(c, err)
			return
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}

func orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return uint(id), true
}
