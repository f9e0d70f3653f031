package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-service/internal/http/middleware"
	"parking-service/internal/notification"
	"parking-service/internal/service"
)

func (h *Handler) listZones(c *gin.Context) {
	zones, err := h.zoneService.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(zones))
}

func (h *Handler) getZone(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	zone, err := h.zoneService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(zone))
}

func (h *Handler) aggregateOccupancy(c *gin.Context) {
	aggregate, err := h.zoneService.Aggregate(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(aggregate))
}

func (h *Handler) createZone(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		Name                string   `json:"name" binding:"required"`
		TotalSlots          int      `json:"total_slots" binding:"required"`
		Location            string   `json:"location"`
		ThresholdPercentage int      `json:"threshold_percentage"`
		Latitude            *float64 `json:"latitude"`
		Longitude           *float64 `json:"longitude"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	zone, err := h.zoneService.Create(c.Request.Context(), service.CreateZoneInput{
		Name:                req.Name,
		TotalSlots:          req.TotalSlots,
		Location:            req.Location,
		ThresholdPercentage: req.ThresholdPercentage,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().Str("user_id", principal.UserID).Str("zone", zone.Name).Msg("zone created")
	h.publisher.Publish(notification.EventZoneCreated, zone)
	c.JSON(http.StatusCreated, successResponse(zone))
}

func (h *Handler) updateZone(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Name                *string  `json:"name"`
		TotalSlots          *int     `json:"total_slots"`
		Location            *string  `json:"location"`
		ThresholdPercentage *int     `json:"threshold_percentage"`
		Latitude            *float64 `json:"latitude"`
		Longitude           *float64 `json:"longitude"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	zone, err := h.zoneService.Update(c.Request.Context(), id, service.UpdateZoneInput{
		Name:                req.Name,
		TotalSlots:          req.TotalSlots,
		Location:            req.Location,
		ThresholdPercentage: req.ThresholdPercentage,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().Str("user_id", principal.UserID).Str("zone", zone.Name).Msg("zone updated")
	h.publisher.Publish(notification.EventZoneUpdated, zone)
	c.JSON(http.StatusOK, successResponse(zone))
}

func (h *Handler) deleteZone(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.zoneService.SoftDelete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().Str("user_id", principal.UserID).Str("zone_id", id.String()).Msg("zone deactivated")
	h.publisher.Publish(notification.EventZoneDeleted, gin.H{"id": id})
	c.JSON(http.StatusOK, successResponse(gin.H{"message": "zone deactivated"}))
}
