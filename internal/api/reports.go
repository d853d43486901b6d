package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReportHandler serves aggregate reports.
type ReportHandler struct {
	svc ReportService
	log *logrus.Logger
}

// NewReportHandler creates a ReportHandler with the given service and logger.
func NewReportHandler(svc ReportService, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, log: log}
}

// TopAssignees handles GET /api/v1/reports/top-assignees?limit=.
func (h *ReportHandler) TopAssignees(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "limit must be a positive integer")

			return
		}

		limit = v
	}

	rows, err := h.svc.TopAssignees(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, h.log, "top assignees report", err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"assignees": rows})
}

// Latency handles GET /api/v1/reports/latency.
func (h *ReportHandler) Latency(c *gin.Context) {
	rows, err := h.svc.Latency(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, "latency report", err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"statuses": rows})
}
