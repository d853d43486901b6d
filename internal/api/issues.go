package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/models"
)

// IssueHandler serves issue endpoints, including the versioned update and
// bulk status transition.
type IssueHandler struct {
	svc IssueService
	log *logrus.Logger
}

// NewIssueHandler creates an IssueHandler with the given service and logger.
func NewIssueHandler(svc IssueService, log *logrus.Logger) *IssueHandler {
	return &IssueHandler{svc: svc, log: log}
}

// List handles GET /api/v1/issues.
func (h *IssueHandler) List(c *gin.Context) {
	filter := models.IssueFilter{
		Status:   models.Status(c.Query("status")),
		Search:   c.Query("q"),
		Ordering: c.Query("ordering"),
		Limit:    parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset:   parseOffset(c.DefaultQuery("offset", "0")),
	}

	if filter.Status != "" && !filter.Status.Valid() {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid status '"+string(filter.Status)+"'")

		return
	}

	if filter.Ordering != "" {
		if _, ok := models.IssueOrderings[filter.Ordering]; !ok {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid ordering '"+filter.Ordering+"'")

			return
		}
	}

	var ok bool
	if filter.AssigneeID, ok = queryID(c, "assignee"); !ok {
		return
	}

	if filter.ReporterID, ok = queryID(c, "reporter"); !ok {
		return
	}

	issues, hasMore, err := h.svc.ListIssues(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, h.log, "listing issues", err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "issue.list", "count": len(issues)}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"issues": issues, "has_more": hasMore})
}

// Get handles GET /api/v1/issues/:id.
func (h *IssueHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	issue, err := h.svc.GetIssue(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, "getting issue", err)

		return
	}

	c.JSON(http.StatusOK, issue)
}

// Create handles POST /api/v1/issues.
func (h *IssueHandler) Create(c *gin.Context) {
	var req models.CreateIssueRequest
	if !bindJSON(c, &req) {
		return
	}

	issue, err := h.svc.CreateIssue(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, "creating issue", err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "issue.create", "issue_id": issue.ID}).Info("audit")

	c.JSON(http.StatusCreated, issue)
}

// Update handles PATCH /api/v1/issues/:id. The body carries the version the
// caller last read; a stale version is answered with the current row.
func (h *IssueHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateIssueRequest
	if !bindJSON(c, &req) {
		return
	}

	issue, err := h.svc.UpdateIssue(c.Request.Context(), id, req.Version, req.Patch())
	if err != nil {
		respondServiceError(c, h.log, "updating issue", err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "issue.update", "issue_id": id, "version": issue.Version}).Info("audit")

	c.JSON(http.StatusOK, issue)
}

// BulkStatus handles POST /api/v1/issues/bulk-status.
func (h *IssueHandler) BulkStatus(c *gin.Context) {
	var req models.BulkStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.BulkUpdateStatus(c.Request.Context(), req.IssueIDs, req.Status)
	if err != nil {
		respondServiceError(c, h.log, "bulk status update", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "issue.bulk_status", "status": req.Status, "count": result.UpdatedCount,
	}).Info("audit")

	c.JSON(http.StatusOK, result)
}

// Timeline handles GET /api/v1/issues/:id/timeline.
func (h *IssueHandler) Timeline(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	entries, hasMore, err := h.svc.Timeline(c.Request.Context(), id, limit, offset)
	if err != nil {
		respondServiceError(c, h.log, "loading timeline", err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"history": entries, "has_more": hasMore})
}
