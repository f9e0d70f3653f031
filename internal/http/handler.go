package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parking-service/internal/notification"
	"parking-service/internal/repository"
	"parking-service/internal/service"
)

type Handler struct {
	admissionService  *service.AdmissionService
	detectionService  *service.DetectionService
	zoneService       *service.ZoneService
	vehicleLogService *service.VehicleLogService
	analyticsService  *service.AnalyticsService
	subscriptions     *repository.SubscriptionRepository
	publisher         notification.Publisher
	vapidPublicKey    string
	log               zerolog.Logger
}

func NewHandler(
	admissionService *service.AdmissionService,
	detectionService *service.DetectionService,
	zoneService *service.ZoneService,
	vehicleLogService *service.VehicleLogService,
	analyticsService *service.AnalyticsService,
	subscriptions *repository.SubscriptionRepository,
	publisher notification.Publisher,
	vapidPublicKey string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		admissionService:  admissionService,
		detectionService:  detectionService,
		zoneService:       zoneService,
		vehicleLogService: vehicleLogService,
		analyticsService:  analyticsService,
		subscriptions:     subscriptions,
		publisher:         publisher,
		vapidPublicKey:    vapidPublicKey,
		log:               log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware, ingestLimiter, cacheMiddleware gin.HandlerFunc) {
	api := r.Group("/api")

	// Camera feed and dashboard reads stay open; the feed gets its own
	// rate limit instead of a token.
	api.POST("/detections", ingestLimiter, h.ingestDetection)
	api.GET("/detections/stats", cacheMiddleware, h.detectionStats)

	api.GET("/zones", h.listZones)
	api.GET("/zones/occupancy", h.aggregateOccupancy)
	api.GET("/zones/:id", h.getZone)

	analytics := api.Group("/analytics")
	analytics.Use(cacheMiddleware)
	{
		analytics.GET("/pollution", h.pollutionIndex)
		analytics.GET("/fuel-distribution", h.fuelDistribution)
		analytics.GET("/daily", h.dailyAnalytics)
	}

	api.GET("/push/key", h.pushKey)
	api.POST("/subscriptions", h.createSubscription)
	api.DELETE("/subscriptions", h.deleteSubscription)

	protected := api.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/detections/history", h.detectionHistory)
		protected.GET("/detections/unprocessed", h.listUnprocessed)
		protected.POST("/detections/:id/process", h.processDetection)

		protected.POST("/zones", h.createZone)
		protected.PUT("/zones/:id", h.updateZone)
		protected.DELETE("/zones/:id", h.deleteZone)

		protected.GET("/logs", h.listVehicleLogs)
		protected.GET("/logs/recent", h.recentVehicleLogs)
		protected.GET("/logs/:id", h.getVehicleLog)
		protected.PUT("/logs/:id/exit", h.recordExit)
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrDuplicateName):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

func parseTimeQuery(c *gin.Context, name string) *time.Time {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil
	}
	return &t
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("invalid time format")
}
