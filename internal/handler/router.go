package handler

import (
	"net/http"

	"github.com/SergeiKhy/linktrack/internal/config"
	"github.com/SergeiKhy/linktrack/internal/middleware"
	"github.com/SergeiKhy/linktrack/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	cfg *config.Config,
	linkService service.LinkService,
	clickProcessor service.ClickProcessor,
	analytics service.AnalyticsService,
	geo *service.GeoService,
	rateLimiter *middleware.RateLimiter,
	authMiddleware gin.HandlerFunc,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	// Rate limiting для всех запросов
	router.Use(rateLimiter.Middleware())

	linkHandler := NewLinkHandler(linkService, clickProcessor, geo, cfg.App.BaseURL, cfg.App.FallbackURL, logger)
	trackHandler := NewTrackHandler(clickProcessor, geo, logger)
	statsHandler := NewStatsHandler(analytics, logger)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)

		// Management API требует идентификацию владельца
		if authMiddleware != nil {
			v1.Use(authMiddleware)
		}

		v1.POST("/links", linkHandler.CreateLink)
		v1.GET("/links", linkHandler.ListLinks)
		v1.PATCH("/links/:id", linkHandler.UpdateLink)
		v1.DELETE("/links/:id", linkHandler.DeleteLink)
		v1.GET("/links/:id/stats", linkHandler.GetLinkStats)
		v1.GET("/stats", statsHandler.GetStats)
	}

	// Трекинг без аутентификации: его шлёт страница редиректа
	router.POST("/api/track", trackHandler.Track)

	// Редирект - горячий путь, без аутентификации
	router.GET("/r/:code", linkHandler.Redirect)

	return router
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
