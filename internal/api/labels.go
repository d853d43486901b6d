package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/models"
)

// LabelHandler serves the label catalogue and issue label assignment.
type LabelHandler struct {
	svc LabelService
	log *logrus.Logger
}

// NewLabelHandler creates a LabelHandler with the given service and logger.
func NewLabelHandler(svc LabelService, log *logrus.Logger) *LabelHandler {
	return &LabelHandler{svc: svc, log: log}
}

// List handles GET /api/v1/labels.
func (h *LabelHandler) List(c *gin.Context) {
	labels, err := h.svc.ListLabels(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, "listing labels", err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"labels": labels})
}

// Get handles GET /api/v1/labels/:id.
func (h *LabelHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	label, err := h.svc.GetLabel(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, "getting label", err)

		return
	}

	c.JSON(http.StatusOK, label)
}

// Create handles POST /api/v1/labels.
func (h *LabelHandler) Create(c *gin.Context) {
	var req models.LabelRequest
	if !bindJSON(c, &req) {
		return
	}

	label, err := h.svc.CreateLabel(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, "creating label", err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "label.create", "label_id": label.ID}).Info("audit")

	c.JSON(http.StatusCreated, label)
}

// Rename handles PUT /api/v1/labels/:id.
func (h *LabelHandler) Rename(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.LabelRequest
	if !bindJSON(c, &req) {
		return
	}

	label, err := h.svc.RenameLabel(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, h.log, "renaming label", err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "label.rename", "label_id": id}).Info("audit")

	c.JSON(http.StatusOK, label)
}

// Delete handles DELETE /api/v1/labels/:id.
func (h *LabelHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteLabel(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, "deleting label", err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "label.delete", "label_id": id}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ReplaceIssueLabels handles PUT /api/v1/issues/:id/labels.
func (h *LabelHandler) ReplaceIssueLabels(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.LabelAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	labels, err := h.svc.ReplaceIssueLabels(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, h.log, "replacing issue labels", err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "issue.labels", "issue_id": id, "count": len(labels)}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"labels": labels})
}
