package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/swiftcheckout/internal/domain/ledger"
	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
	"github.com/mamadbah2/swiftcheckout/internal/service/checkout"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotEditable), errors.Is(err, ledger.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrEmptyTransaction), errors.Is(err, checkout.ErrUnsupportedCurrency):
		return http.StatusUnprocessableEntity
	case errors.Is(err, checkout.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidPaymentMethod),
		errors.Is(err, models.ErrInvalidDataURI),
		errors.Is(err, ledger.ErrInvalidCurrency),
		errors.Is(err, ledger.ErrInvalidPrice):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrCollaborator), errors.Is(err, ledger.ErrRepricingFailed):
		return http.StatusBadGateway
	case errors.Is(err, checkout.ErrFeatureDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body and logs server side failures.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	message := err.Error()

	switch status {
	case http.StatusInternalServerError:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		message = "internal error"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		logger.Warn("upstream unavailable", zap.String("path", c.FullPath()), zap.Error(err))
	default:
		logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
