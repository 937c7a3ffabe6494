package productcontroller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/response"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
)

// GetProductByID returns a single product.
// URL param: /products/:id
func GetProductByID(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productID(c)
		if !ok {
			return
		}

		product, err := store.GetProduct(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// GetProducts lists the catalog, optionally filtered with ?category=.
func GetProducts(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := store.List(c.Request.Context(), c.Query("category"))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /products/category/:category
func GetProductsByCategory(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := store.List(c.Request.Context(), c.Param("category"))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func productID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return uint(id), true
}
