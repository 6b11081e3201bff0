package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oussamael/internhub/internal/app/models/dto"
	"github.com/oussamael/internhub/internal/app/services"
	"github.com/oussamael/internhub/internal/middleware"
	"github.com/oussamael/internhub/internal/pkg/helpers"
)

// InternshipController handles internship CRUD and lifecycle transitions.
type InternshipController struct {
	internshipService *services.InternshipService
}

// NewInternshipController creates a new InternshipController
func NewInternshipController(internshipService *services.InternshipService) *InternshipController {
	return &InternshipController{internshipService: internshipService}
}

// ListInternships lists the internships the caller's scope covers.
func (c *InternshipController) ListInternships(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		unauthorized(ctx)
		return
	}
	page, pageSize := helpers.ParsePageParams(ctx)

	list, err := c.internshipService.List(ctx, userID, page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(list))
}

// GetInternship retrieves one internship by id.
func (c *InternshipController) GetInternship(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		unauthorized(ctx)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	internship, err := c.internshipService.Get(ctx, userID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(internship))
}

// CreateInternship registers a new internship in draft state.
func (c *InternshipController) CreateInternship(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		unauthorized(ctx)
		return
	}

	var req dto.CreateInternshipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid internship data").
			WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	internship, err := c.internshipService.Create(ctx, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(internship))
}

// UpdateInternship applies descriptive changes.
func (c *InternshipController) UpdateInternship(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		unauthorized(ctx)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	var req dto.UpdateInternshipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid internship data").
			WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	internship, err := c.internshipService.Update(ctx, userID, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(internship))
}

// DeleteInternship removes or deactivates an internship.
func (c *InternshipController) DeleteInternship(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		unauthorized(ctx)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	if err := c.internshipService.Delete(ctx, userID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Internship deleted"}))
}

// SubmitTransition runs a lifecycle transition on an internship.
func (c *InternshipController) SubmitTransition(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		unauthorized(ctx)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	var req dto.TransitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid transition data").
			WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	result, err := c.internshipService.SubmitTransition(ctx, userID, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(result))
}

func pathID(ctx *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id < 1 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid id parameter")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		if err == nil {
			err = strconv.ErrRange
		}
		return 0, err
	}
	return id, nil
}

func unauthorized(ctx *gin.Context) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
	ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}
