package v1

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shenikar/critter_connect/internal/observability"
	"github.com/sirupsen/logrus"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	reports := api.Group("/reports")
	{
		// Публичные маршруты подачи отчёта
		reports.POST("", h.createReport)
		reports.GET("", h.listReports)
		reports.GET("/:id", h.getReport)
		reports.GET("/by-code/:code", h.getReportByCode)
		reports.POST("/upload-image", h.uploadImage)
		reports.GET("/images/:id", h.getFallbackImage)
		reports.POST("/identify-species", h.identifySpecies)
	}

	// Маршруты разбора отчётов закрыты ключом, если ключи заданы
	triage := reports.Group("")
	if len(h.cfg.APIKeys) > 0 {
		triage.Use(APIKeyAuthMiddleware(h.cfg.APIKeys, h.logger))
	}
	triage.POST("/:id/status", h.updateStatus)
	triage.POST("/:id/fields", h.updateFields)
	triage.DELETE("/:id", h.deleteReport)

	// Карта: тот же список с фильтром по кругу
	api.GET("/maps/getByGeoSpatial", h.listReports)

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}

// WebSocketPath - канал событий для панелей мониторинга
const WebSocketPath = "/api/v1/ws"

// NewRouter собирает gin-движок: восстановление после паники, метрики, CORS и API
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(h.recovery(), observability.GinMetrics(), cors.New(corsConfig(h.cfg.AllowedOrigins)))

	api := router.Group("/api/v1")
	h.RegisterRoutes(api)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{Success: false, Message: "Route not found"})
	})
	return router
}

// NewServeMux отдаёт WebSocketPath напрямую, минуя gin: его ResponseWriter
// отказывает в Hijack после WriteHeader. Остальное обслуживает router.
func NewServeMux(router http.Handler, ws http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	if ws != nil {
		mux.Handle(WebSocketPath, ws)
	}
	mux.Handle("/", router)
	return mux
}

// recovery - последний рубеж: паника превращается в общий ответ 500
func (h *Handler) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		h.logger.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		}).Error("Recovered from panic")

		resp := Response{Success: false, Message: "Internal server error"}
		if !h.cfg.IsProduction() {
			resp.Error = fmt.Sprint(recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	})
}

// corsConfig: пустой список или "*" разрешают любой origin
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
