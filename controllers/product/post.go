package productcontroller

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/response"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/shopspring/decimal"
)

// CreateProduct accepts either a JSON body or a multipart form with an
// optional "image" file, which is stored under uploadsDir/products.
func CreateProduct(store *catalog.Store, uploadsDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindProductInput(c, uploadsDir)
		if !ok {
			return
		}

		product, err := store.Create(c.Request.Context(), in)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

// PUT /products/:id
func UpdateProduct(store *catalog.Store, uploadsDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productID(c)
		if !ok {
			return
		}
		in, ok := bindProductInput(c, uploadsDir)
		if !ok {
			return
		}

		product, err := store.Update(c.Request.Context(), id, in)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func bindProductInput(c *gin.Context, uploadsDir string) (catalog.ProductInput, bool) {
	var in catalog.ProductInput
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err)
			return in, false
		}
		return in, true
	}

	var err error
	in.Name = formString(c, "name")
	in.Description = formString(c, "description")
	in.Category = formString(c, "category")
	if in.Price, err = formDecimal(c, "price"); err != nil {
		response.BadRequest(c, err)
		return in, false
	}
	if in.Discount, err = formDecimal(c, "discount"); err != nil {
		response.BadRequest(c, err)
		return in, false
	}
	if in.Rating, err = formInt(c, "rating"); err != nil {
		response.BadRequest(c, err)
		return in, false
	}
	if in.Stock, err = formInt(c, "stock"); err != nil {
		response.BadRequest(c, err)
		return in, false
	}

	file, err := c.FormFile("image")
	if err == nil {
		saveDir := filepath.Join(uploadsDir, "products")
		if err := os.MkdirAll(saveDir, os.ModePerm); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create upload folder"})
			return in, false
		}
		filename := fmt.Sprintf("%d_%s", time.Now().UnixNano(), strings.ReplaceAll(filepath.Base(file.Filename), " ", "_"))
		if err := c.SaveUploadedFile(file, filepath.Join(saveDir, filename)); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
			return in, false
		}
		imageURL := "/uploads/products/" + filename
		in.Image = &imageURL
	} else if image := formString(c, "image"); image != nil {
		in.Image = image
	}

	return in, true
}

func formString(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &v
}

func formDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	v, ok := c.GetPostForm(key)
	if !ok || v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", key)
	}
	return &d, nil
}

func formInt(c *gin.Context, key string) (*int, error) {
	v, ok := c.GetPostForm(key)
	if !ok || v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", key)
	}
	return &n, nil
}
