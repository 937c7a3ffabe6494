package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/response"
)

// POST /api/auth/register
func Register(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in RegisterInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err)
			return
		}

		session, err := svc.Register(c.Request.Context(), in)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, session)
	}
}

// POST /api/auth/login
func Login(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in LoginInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err)
			return
		}

		session, err := svc.Login(c.Request.Context(), in)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}
