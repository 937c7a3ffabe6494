package adminController

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// GET /api/admin/admins
func GetAllAdmins(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		admins := []models.User{}
		if err := db.WithContext(c.Request.Context()).
			Where("role = ?", models.RoleAdmin).
			Order("created_at").
			Find(&admins).Error; err != nil {
			log.Error().Err(err).Msg("failed to fetch admins")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch admins"})
			return
		}
		c.JSON(http.StatusOK, admins)
	}
}

// PUT /api/admin/role {email, role}
func SetUserRole(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string      `json:"email" binding:"required"`
			Role  models.Role `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.Role != models.RoleAdmin && req.Role != models.RoleUser {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).Where("email = ?", auth.NormalizeEmail(req.Email)).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		}

		if err := db.WithContext(c.Request.Context()).Model(&user).Update("role", req.Role).Error; err != nil {
			log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to update role")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
			return
		}

		log.Info().Uint("user_id", user.ID).Str("role", string(req.Role)).Msg("user role changed")
		c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user": user})
	}
}
