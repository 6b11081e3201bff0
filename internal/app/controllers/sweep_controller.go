package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oussamael/internhub/internal/app/models/dto"
	"github.com/oussamael/internhub/internal/app/services"
	"github.com/oussamael/internhub/internal/middleware"
)

// SweepController exposes the anomaly sweep for on-demand runs. The
// scheduler triggers the same service on its own interval.
type SweepController struct {
	sweepService *services.SweepService
}

// NewSweepController creates a new SweepController
func NewSweepController(sweepService *services.SweepService) *SweepController {
	return &SweepController{sweepService: sweepService}
}

// RunAnomalySweep triggers a sweep and returns its report.
func (c *SweepController) RunAnomalySweep(ctx *gin.Context) {
	report, err := c.sweepService.RunAnomalySweep(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report))
}
