package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"parking-service/internal/notification"
	"parking-service/internal/repository"
)

func (h *Handler) listVehicleLogs(c *gin.Context) {
	filter := repository.VehicleLogFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		FuelType:  strings.TrimSpace(c.Query("fuel_type")),
		Category:  strings.TrimSpace(c.Query("category")),
		StartDate: parseTimeQuery(c, "start_date"),
		EndDate:   parseTimeQuery(c, "end_date"),
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	logs, err := h.vehicleLogService.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(logs))
}

func (h *Handler) recentVehicleLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	logs, err := h.vehicleLogService.Recent(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(logs))
}

func (h *Handler) getVehicleLog(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	entry, err := h.vehicleLogService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(entry))
}

func (h *Handler) recordExit(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.vehicleLogService.RecordExit(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if result.Zone != nil {
		h.publisher.Publish(notification.EventZoneUpdated, result.Zone)
	}
	c.JSON(http.StatusOK, successResponse(result))
}
