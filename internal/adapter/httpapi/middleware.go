package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peerpay/peerpay-backend/internal/adapter/auth"
)

// claimsKey is the gin context key holding the verified token claims.
const claimsKey = "auth_claims"

// RequestLogger logs one structured line per request after it completes.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// AuthRequired verifies the bearer token and stores its claims on the context.
// Requests without a valid token are rejected with 401 before any handler runs.
func AuthRequired(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("unauthorized", "missing bearer token"))
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, prefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("unauthorized", "invalid or expired token"))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// claimsFrom returns the claims set by AuthRequired. It must only be called
// from handlers registered behind that middleware.
func claimsFrom(c *gin.Context) *auth.Claims {
	return c.MustGet(claimsKey).(*auth.Claims)
}
