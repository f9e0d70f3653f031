package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"parking-service/internal/repository"
	"parking-service/internal/service"
)

func (h *Handler) ingestDetection(c *gin.Context) {
	var req struct {
		NumberPlate string   `json:"number_plate"`
		Category    string   `json:"vehicle_category"`
		FuelType    string   `json:"fuel_type"`
		Confidence  *float64 `json:"confidence"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.admissionService.Ingest(c.Request.Context(), service.IngestInput{
		NumberPlate: req.NumberPlate,
		Category:    req.Category,
		FuelType:    req.FuelType,
		Confidence:  req.Confidence,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(result))
}

func (h *Handler) detectionStats(c *gin.Context) {
	stats, err := h.analyticsService.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(stats))
}

func (h *Handler) detectionHistory(c *gin.Context) {
	filter := repository.DetectionHistoryFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		StartDate: parseTimeQuery(c, "start_date"),
		EndDate:   parseTimeQuery(c, "end_date"),
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))

	page, err := h.detectionService.History(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(page))
}

func (h *Handler) listUnprocessed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	detections, err := h.detectionService.ListUnprocessed(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(detections))
}

func (h *Handler) processDetection(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.admissionService.Reprocess(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}
