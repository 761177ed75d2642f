package middlewares

import (
	"net/http"

	"concretera-backend/config"
	"concretera-backend/services"

	"github.com/gin-gonic/gin"
)

// Provision mirrors the authenticated external identity into the local
// users table and resolves the effective role. Runs after Auth.
func Provision() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := services.Identity{
			Sub:   c.GetString("userId"),
			Email: c.GetString("email"),
			Name:  c.GetString("name"),
		}
		if claims, ok := c.Get("roleClaims"); ok {
			identity.Roles, _ = claims.([]string)
		}

		user, err := services.SyncUser(config.DB, identity)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision user"})
			return
		}

		c.Set("role", user.Role)
		c.Set("user", user)
		c.Next()
	}
}
