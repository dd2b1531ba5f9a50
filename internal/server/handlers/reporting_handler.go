package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

// ReportingService exposes the sales analytics.
type ReportingService interface {
	Analyze(ctx context.Context) (models.SalesAnalysis, error)
	History(ctx context.Context) ([]models.TransactionRecord, error)
	ClearHistory(ctx context.Context) error
}

// ReportingHandler serves the history and the sales dashboard.
type ReportingHandler struct {
	svc    ReportingService
	logger *zap.Logger
}

// NewReportingHandler constructs the HTTP handler adapter.
func NewReportingHandler(svc ReportingService, logger *zap.Logger) *ReportingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportingHandler{svc: svc, logger: logger}
}

// History lists every paid transaction.
func (h *ReportingHandler) History(c *gin.Context) {
	records, err := h.svc.History(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// ClearHistory drops the whole history.
func (h *ReportingHandler) ClearHistory(c *gin.Context) {
	if err := h.svc.ClearHistory(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dashboard returns the sales summary and its narrative.
func (h *ReportingHandler) Dashboard(c *gin.Context) {
	analysis, err := h.svc.Analyze(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
