package userControllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/response"
	"github.com/junaidrashid-git/storefront-api/errs"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"gorm.io/gorm"
)

type UpdateUserInput struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// GET /api/users/me
func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, middleware.UserID(c)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// GET /api/admin/users
func GetAllUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		users := []models.User{}
		if err := db.WithContext(c.Request.Context()).
			Select("id", "email", "name", "phone", "role", "created_at").
			Order("created_at desc").
			Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// PUT /api/users/me. Only name and phone are editable; email and role are not.
func UpdateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BadRequest(c, err)
			return
		}

		updates := map[string]any{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				response.Error(c, errs.Validation("name cannot be empty"))
				return
			}
			updates["name"] = name
		}
		if input.Phone != nil {
			updates["phone"] = strings.TrimSpace(*input.Phone)
		}

		ctx := c.Request.Context()
		userID := middleware.UserID(c)
		if len(updates) > 0 {
			res := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
			if res.Error != nil {
				response.Error(c, errs.Internal("Failed to update user", res.Error))
				return
			}
			if res.RowsAffected == 0 {
				response.Error(c, errs.NotFound("User not found"))
				return
			}
		}

		var user models.User
		if err := db.WithContext(ctx).First(&user, userID).Error; err != nil {
			response.Error(c, errs.NotFound("User not found"))
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
