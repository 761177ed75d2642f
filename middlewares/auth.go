package middlewares

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"concretera-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Auth validates the bearer token issued by the identity provider and puts
// the identity claims into the request context. The effective role is set
// later by Provision, once the user has been mirrored locally.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			tokenString = strings.TrimPrefix(authHeader, "bearer ")
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has no subject"})
			return
		}

		email, _ := claims["email"].(string)
		name, _ := claims["name"].(string)

		c.Set("userId", sub)
		c.Set("email", email)
		c.Set("name", name)
		c.Set("roleClaims", claimRoles(claims))

		c.Next()
	}
}

// claimRoles reads the namespaced roles claim, which arrives as []any.
func claimRoles(claims jwt.MapClaims) []string {
	raw, ok := claims[models.RolesClaim].([]interface{})
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

// RequireRoles gates a route group to an allow-list of roles. It must run
// after Provision, which sets the effective role.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}

// RequirePrivileged is shorthand for the three management roles.
func RequirePrivileged() gin.HandlerFunc {
	return RequireRoles(models.RoleAdministrador, models.RoleContable, models.RoleComercial)
}
