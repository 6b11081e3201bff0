package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oussamael/internhub/internal/app/models/dto"
	"github.com/oussamael/internhub/internal/app/services"
	"github.com/oussamael/internhub/internal/middleware"
)

// DashboardController serves the role-scoped dashboard.
type DashboardController struct {
	dashboardService *services.DashboardService
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(dashboardService *services.DashboardService) *DashboardController {
	return &DashboardController{dashboardService: dashboardService}
}

// GetDashboard returns the aggregated dashboard for the caller.
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	payload, err := c.dashboardService.GetDashboard(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(payload))
}
