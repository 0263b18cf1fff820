package handler

import (
	"time"

	"sasselerator/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// RouterConfig - параметры сборки gin.Engine.
type RouterConfig struct {
	AllowedOrigins  []string
	GenerateLimiter gin.HandlerFunc
	// Metrics может быть nil, тогда /metrics не регистрируется.
	Metrics *ginprometheus.Prometheus
}

// NewRouter собирает gin.Engine с общими middleware и маршрутами планов.
// Middleware подключаются до маршрутов: gin фиксирует цепочку обработчиков при регистрации.
func NewRouter(h *PlanHandler, cfg RouterConfig, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	if cfg.Metrics != nil {
		cfg.Metrics.Use(router)
	}

	h.RegisterRoutes(router, cfg.GenerateLimiter)
	return router
}
