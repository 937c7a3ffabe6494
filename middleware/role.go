package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/response"
	"github.com/junaidrashid-git/storefront-api/errs"
	"github.com/junaidrashid-git/storefront-api/models"
)

// RoleLookup reads a user's role as currently stored.
type RoleLookup interface {
	CurrentRole(ctx context.Context, userID uint) (models.Role, error)
}

// LoadRole replaces the role claimed by the token with the stored one, so a
// demotion takes effect before the token expires. It must run after ValidateToken.
func LoadRole(lookup RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == 0 {
			response.Error(c, errs.Unauthorized("authentication required"))
			return
		}

		role, err := lookup.CurrentRole(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Set(roleKey, role)
		c.Next()
	}
}

// RequireRole lets the request through only when the caller holds one of
// roles. It must run after ValidateToken and LoadRole.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == 0 {
			response.Error(c, errs.Unauthorized("authentication required"))
			return
		}

		role := Role(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Error(c, errs.Forbidden("insufficient permissions"))
	}
}
