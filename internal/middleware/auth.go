package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/craftkart/identity/internal/config"
	"github.com/craftkart/identity/internal/models"
	"github.com/craftkart/identity/internal/observability"
	"github.com/craftkart/identity/internal/services"
)

// SessionAuth validates the session cookie and stores its claims in the
// request context.
func SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(config.AppConfig.CookieName)
		if err != nil || cookie == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
			c.Abort()
			return
		}

		claims, err := services.ParseSessionToken(cookie)
		if err != nil {
			observability.Logger().Debug("rejected session cookie", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid session"})
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}

// RequireRole allows only sessions holding one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := SessionClaimsFromContext(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
			c.Abort()
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"message": "insufficient privileges"})
		c.Abort()
	}
}

// SessionClaimsFromContext returns the claims stored by SessionAuth.
func SessionClaimsFromContext(c *gin.Context) (*models.SessionClaims, error) {
	value, exists := c.Get("claims")
	if !exists {
		return nil, fmt.Errorf("claims not found")
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}
	return claims, nil
}
