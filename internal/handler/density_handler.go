package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/densitymap-backend-go/internal/middleware"
	"github.com/jengzang/densitymap-backend-go/internal/models"
	"github.com/jengzang/densitymap-backend-go/internal/service"
	"github.com/jengzang/densitymap-backend-go/pkg/response"
)

// DensityHandler handles HTTP requests for density maps
type DensityHandler struct {
	service *service.DensityService
}

// NewDensityHandler creates a new density handler
func NewDensityHandler(service *service.DensityService) *DensityHandler {
	return &DensityHandler{service: service}
}

// GenerateDensityMap handles POST /densityMap and POST /api/v1/density-map
// The response body is a bare JSON array of pixel records.
func (h *DensityHandler) GenerateDensityMap(c *gin.Context) {
	var form models.DensityMapForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, "Invalid form fields: "+err.Error())
		return
	}

	records, err := h.service.GenerateDensityMap(c.Request.Context(), form, middleware.RequestID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			response.BadRequest(c, err.Error())
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			response.ServiceUnavailable(c, "Density map computation did not finish in time")
		default:
			_ = c.Error(err)
			response.InternalError(c, "Failed to compute density map")
		}
		return
	}

	c.JSON(http.StatusOK, records)
}

// ListRuns handles GET /api/v1/density-map/runs
func (h *DensityHandler) ListRuns(c *gin.Context) {
	var filter models.RunFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	// Default limit
	if filter.Limit == 0 {
		filter.Limit = 20
	}

	runs, err := h.service.ListRuns(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c, "Failed to list density runs")
		return
	}

	response.Success(c, gin.H{
		"data":  runs,
		"count": len(runs),
	})
}
