// Package httpapi exposes the account and transfer use cases as a JSON HTTP
// API. It owns request decoding, auth enforcement, and the mapping of typed
// domain errors to status codes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peerpay/peerpay-backend/internal/adapter/auth"
	"github.com/peerpay/peerpay-backend/internal/config"
)

// NewRouter wires middleware and routes around the handler.
func NewRouter(h *Handler, tokens *auth.TokenManager, logger *zap.Logger, cfg config.ServerConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "peerpay", "status": "ok"})
	})
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", h.Signup)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", AuthRequired(tokens), h.Me)
		}

		protected := api.Group("", AuthRequired(tokens))
		{
			protected.GET("/account/balance", h.Balance)
			protected.GET("/users/search", h.SearchUsers)

			transfers := protected.Group("/transfers")
			{
				transfers.POST("", h.CreateTransfer)
				transfers.GET("", h.ListTransfers)
				transfers.GET("/:id", h.GetTransfer)
			}
		}
	}

	return r
}
