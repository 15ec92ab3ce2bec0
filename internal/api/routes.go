package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/config"
)

// NewRouter builds the gin engine with CORS, auth, and all routes.
func NewRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.ServerConfig.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Owner-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", OwnerAuth(cfg.AuthConfig.JWTSecret))
	{
		templates := api.Group("/templates")
		{
			templates.POST("", handler.CreateTemplate)
			templates.GET("", handler.ListTemplates)
			templates.GET("/:id", handler.GetTemplate)
			templates.POST("/:id/regenerate", handler.RegenerateTemplate)
			templates.DELETE("/:id", handler.DeleteTemplate)
		}

		indicators := api.Group("/indicators")
		{
			indicators.GET("", handler.ListIndicators)
			indicators.PUT("/:type", handler.UpsertIndicator)
			indicators.DELETE("/:type", handler.DeleteIndicator)
		}
	}

	return router
}
