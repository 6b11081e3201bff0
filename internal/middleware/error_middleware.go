package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oussamael/internhub/internal/app/models/dto"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
)

// HandleAPIError maps application errors to HTTP responses. All
// controllers funnel their errors through here so the status mapping
// lives in one place.
func HandleAPIError(c *gin.Context, err error) {
	message := err.Error()

	var status int
	var detail *dto.ErrorDetail

	switch {
	case errors.Is(err, apperrors.ErrValidationFailed),
		errors.Is(err, apperrors.ErrBadRequest):
		status = http.StatusBadRequest
		detail = dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message)

	case errors.Is(err, apperrors.ErrInvalidTransition):
		status = http.StatusBadRequest
		detail = dto.NewErrorDetail(dto.ErrorCodeInvalidTransition, message)

	case errors.Is(err, apperrors.ErrPermissionDenied),
		errors.Is(err, apperrors.ErrScopeDenied):
		status = http.StatusForbidden
		detail = dto.NewErrorDetail(dto.ErrorCodeScopeDenied, message)

	case errors.Is(err, apperrors.ErrInternshipNotFound),
		errors.Is(err, apperrors.ErrAlertNotFound),
		errors.Is(err, apperrors.ErrStudentNotFound),
		errors.Is(err, apperrors.ErrSupervisorNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrResourceNotFound):
		status = http.StatusNotFound
		detail = dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message)

	case errors.Is(err, apperrors.ErrTransitionConflict),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrResourceAlreadyExists):
		status = http.StatusConflict
		detail = dto.NewErrorDetail(dto.ErrorCodeConflict, message)

	case errors.Is(err, apperrors.ErrSweepAlreadyRunning):
		// 423 Locked: the sweep is single-flight
		status = http.StatusLocked
		detail = dto.NewErrorDetail(dto.ErrorCodeSweepLocked, message)

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		detail = dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")

	case errors.Is(err, apperrors.ErrTokenExpired):
		status = http.StatusUnauthorized
		detail = dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")

	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrInvalidFormat):
		status = http.StatusUnauthorized
		detail = dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")

	case errors.Is(err, apperrors.ErrAggregationFailed):
		status = http.StatusInternalServerError
		detail = dto.NewErrorDetail(dto.ErrorCodeAggregationFailed, "Dashboard aggregation failed")

	default:
		status = http.StatusInternalServerError
		detail = dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}

	c.JSON(status, dto.APIResponse{Error: detail, Timestamp: time.Now()})
}
