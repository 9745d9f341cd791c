package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/colin330smith/callbot-ai-sub000/config"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the Supabase access token payload. Tokens are issued by
// the auth provider; this backend only verifies them.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// RequireAuth validates the bearer token and aborts with 401 when absent
// or invalid. Sets requiresAuth so the client knows to show a sign-in.
func RequireAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, cfg) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":        "Authentication required",
				"requiresAuth": true,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches user identity when a valid token is present but
// never rejects the request. Used by endpoints with a free preview path.
func OptionalAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, cfg)
		c.Next()
	}
}

func authenticate(c *gin.Context, cfg *config.AuthConfig) bool {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return false
	}

	c.Set("user_id", claims.Subject)
	c.Set("email", claims.Email)

	ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, claims.Subject)
	ctx = context.WithValue(ctx, logger.EmailKey, claims.Email)
	c.Request = c.Request.WithContext(ctx)

	return true
}

// GetUserID gets the authenticated user ID from context, empty when the
// request is anonymous.
func GetUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		return userID.(string)
	}
	return ""
}

// GetEmail gets the authenticated user email from context.
func GetEmail(c *gin.Context) string {
	if email, exists := c.Get("email"); exists {
		return email.(string)
	}
	return ""
}
