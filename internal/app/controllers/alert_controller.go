package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oussamael/internhub/internal/app/models/dto"
	"github.com/oussamael/internhub/internal/app/services"
	"github.com/oussamael/internhub/internal/middleware"
)

// AlertController lets users read and clear their follow-up obligations.
type AlertController struct {
	alertService *services.AlertService
}

// NewAlertController creates a new AlertController
func NewAlertController(alertService *services.AlertService) *AlertController {
	return &AlertController{alertService: alertService}
}

// ListAlerts returns the caller's unresolved obligations.
func (c *AlertController) ListAlerts(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		unauthorized(ctx)
		return
	}

	alerts, err := c.alertService.ListOpen(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(alerts))
}

// AcknowledgeAlert marks an obligation as seen.
func (c *AlertController) AcknowledgeAlert(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		unauthorized(ctx)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	if err := c.alertService.Acknowledge(ctx, userID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Alert acknowledged"}))
}

// ResolveAlert closes an obligation.
func (c *AlertController) ResolveAlert(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		unauthorized(ctx)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	if err := c.alertService.Resolve(ctx, userID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Alert resolved"}))
}
