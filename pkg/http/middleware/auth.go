package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	httpx "github.com/firelater/firelater/pkg/http"
)

/**
 * @file: auth.go
 * @description: jwt auth middleware, resolves the calling tenant and user
 */

const (
	// TENANT_ID gin context key holding the authenticated tenant id
	TENANT_ID = "TENANT_ID"
	// USER_ID gin context key holding the authenticated user id
	USER_ID = "USER_ID"
)

// Claims carried by FireLater access tokens.
type Claims struct {
	TenantId string `json:"tenantId"`
	UserId   string `json:"userId"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the Authorization header and stores claims on the context.
func AuthMiddleware(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorization := c.GetHeader("Authorization")
		if authorization == "" {
			httpx.WithRepErrMsg(c, httpx.AuthorizationEmpty.Code, httpx.AuthorizationEmpty.Msg, c.Request.URL.Path)
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(authorization, "Bearer ")
		claims, err := ParseToken(tokenStr, secretKey)
		if err != nil {
			httpx.WithRepErrMsg(c, httpx.InvalidToken.Code, httpx.InvalidToken.Msg, c.Request.URL.Path)
			c.Abort()
			return
		}

		c.Set(TENANT_ID, claims.TenantId)
		c.Set(USER_ID, claims.UserId)
		c.Next()
	}
}

// ParseToken parses and validates an access token.
func ParseToken(tokenStr, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
