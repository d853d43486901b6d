package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/models"
)

// CommentHandler serves comment endpoints.
type CommentHandler struct {
	svc CommentService
	log *logrus.Logger
}

// NewCommentHandler creates a CommentHandler with the given service and logger.
func NewCommentHandler(svc CommentService, log *logrus.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, log: log}
}

// List handles GET /api/v1/comments?issue=&author=.
func (h *CommentHandler) List(c *gin.Context) {
	filter := models.CommentFilter{
		Limit:  parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset: parseOffset(c.DefaultQuery("offset", "0")),
	}

	var ok bool
	if filter.IssueID, ok = queryID(c, "issue"); !ok {
		return
	}

	if filter.AuthorID, ok = queryID(c, "author"); !ok {
		return
	}

	comments, hasMore, err := h.svc.ListComments(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, h.log, "listing comments", err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments, "has_more": hasMore})
}

// Get handles GET /api/v1/comments/:id.
func (h *CommentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	comment, err := h.svc.GetComment(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, "getting comment", err)

		return
	}

	c.JSON(http.StatusOK, comment)
}

// Create handles POST /api/v1/issues/:id/comments.
func (h *CommentHandler) Create(c *gin.Context) {
	issueID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.svc.AddComment(c.Request.Context(), issueID, req)
	if err != nil {
		respondServiceError(c, h.log, "adding comment", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "comment.create", "issue_id": issueID, "comment_id": comment.ID,
	}).Info("audit")

	c.JSON(http.StatusCreated, comment)
}
