package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rideledger/ride_billing_app/internal/apperrors"
	"github.com/rideledger/ride_billing_app/internal/middleware"
)

// requestIdentity extracts the authenticated tenant and user from the request
// context. On failure it writes a 401 response and returns ok=false.
func requestIdentity(c *gin.Context, logger *slog.Logger) (tenantID, userID string, ok bool) {
	tenantID, ok = middleware.GetTenantIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Tenant ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	userID, ok = middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return tenantID, userID, true
}

// respondServiceError maps a service error to an HTTP response. AppErrors
// carry their own status and stable code; bare sentinels fall back to the
// conventional status for their class.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, fallbackMsg string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error(fallbackMsg, slog.String("error", err.Error()))
			c.JSON(appErr.Status, gin.H{"error": fallbackMsg, "code": appErr.Code})
			return
		}
		logger.Warn(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": apperrors.CodeValidationFailed})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		logger.Warn(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvariant):
		// The caller's money never moved; partial pairs cannot commit.
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg, "code": apperrors.CodeUnbalancedTransaction})
	case errors.Is(err, apperrors.ErrTransient):
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage temporarily unavailable, retry the request", "code": apperrors.CodeStorageUnavailable})
	default:
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
	}
}
