package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/zlog"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/dto"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/pkg/auth"
)

// UserIDKey is the context key the auth middleware stores the caller id under.
const UserIDKey = "userID"

func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zlog.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}

// Auth rejects requests without a valid bearer token and stores the caller's
// user id on the context.
func Auth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			abortUnauthorized(c)
			return
		}
		claims, err := tokens.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			abortUnauthorized(c)
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Response{
		Status: "error",
		Error: &dto.Error{
			Code: dto.Unauthorized,
			Desc: "Authentication required",
		},
	})
}
