package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/hortifruti-api/internal/auth"
)

const claimsKey = "authClaims"

func Auth(tm *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tm.FromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": tokenErrorMessage(err)})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is sent and otherwise lets
// the request through anonymously.
func OptionalAuth(tm *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			if claims, err := tm.FromHeader(header); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil || !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": auth.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns nil on routes not behind Auth.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func GetUserID(c *gin.Context) uuid.UUID {
	if claims := ClaimsFrom(c); claims != nil {
		return claims.UserID
	}
	return uuid.Nil
}

func IsAdmin(c *gin.Context) bool {
	claims := ClaimsFrom(c)
	return claims != nil && claims.IsAdmin()
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return auth.ErrMissingToken.Error()
	case errors.Is(err, auth.ErrExpiredToken):
		return auth.ErrExpiredToken.Error()
	default:
		return auth.ErrInvalidToken.Error()
	}
}
