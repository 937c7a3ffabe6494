package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/controllers/response"
	"github.com/junaidrashid-git/storefront-api/models"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"
)

// ValidateToken rejects requests without a valid bearer token and stores the
// caller's id and role on the context. Browsers cannot set headers on
// websocket upgrades, so a token query parameter is accepted too.
func ValidateToken(tokens *auth.TokenMaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// UserID returns the authenticated caller, or 0 outside ValidateToken.
func UserID(c *gin.Context) uint {
	id, _ := c.Get(userIDKey)
	uid, _ := id.(uint)
	return uid
}

func Role(c *gin.Context) models.Role {
	r, _ := c.Get(roleKey)
	role, _ := r.(models.Role)
	return role
}
