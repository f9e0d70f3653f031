package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) pollutionIndex(c *gin.Context) {
	index, err := h.analyticsService.Pollution(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(index))
}

func (h *Handler) fuelDistribution(c *gin.Context) {
	distribution, err := h.analyticsService.FuelDistribution(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(distribution))
}

func (h *Handler) dailyAnalytics(c *gin.Context) {
	daily, err := h.analyticsService.Daily(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(daily))
}
