package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/global-vision-developer/adminpro-api/internal/handler"
	"github.com/global-vision-developer/adminpro-api/internal/model"
)

const (
	contextAdminID    = "adminID"
	contextAdminName  = "adminName"
	contextAdminEmail = "adminEmail"
)

type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

type adminClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticate verifies the JWT token and sets admin identity in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.parseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(contextAdminID, claims.Subject)
		c.Set(contextAdminName, claims.Name)
		c.Set(contextAdminEmail, claims.Email)
		c.Next()
	}
}

func (m *AuthMiddleware) parseToken(tokenStr string) (*adminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &adminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*adminClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}

// ActorFromContext returns the authenticated admin identity set by
// Authenticate. An empty ID means the request was not authenticated.
func ActorFromContext(c *gin.Context) model.Actor {
	return model.Actor{
		ID:    c.GetString(contextAdminID),
		Name:  c.GetString(contextAdminName),
		Email: c.GetString(contextAdminEmail),
	}
}
