package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/httputil"
	"github.com/persistorai/tracker/internal/metrics"
	"github.com/persistorai/tracker/internal/middleware"
	"github.com/persistorai/tracker/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeVersionConflict = "version_conflict"
	ErrCodeInternalError   = "internal_error"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeValidationError = "validation_error"
	ErrCodeTooLarge        = "payload_too_large"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

func respondErrorWith(c *gin.Context, status int, code, message string, extra gin.H) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondErrorWith(c, status, code, message, extra)
}

// bindJSON decodes the request body into dst, answering 413 when the body
// limit was hit and 400 for anything else unreadable.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	switch {
	case err == nil:
		return true
	case middleware.BodyTooLarge(err):
		respondError(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
	default:
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
	}

	return false
}

// respondServiceError maps a service error onto the HTTP error contract.
// Anything unrecognised is logged under op and reported as a 500.
func respondServiceError(c *gin.Context, log *logrus.Logger, op string, err error) {
	var (
		verr     *models.ValidationError
		conflict *models.ConflictError
		partial  *models.PartialNotFoundError
	)

	switch {
	case errors.As(err, &verr):
		respondErrorWith(c, http.StatusBadRequest, ErrCodeValidationError, "validation failed", gin.H{"fields": verr.Fields})
	case errors.As(err, &conflict):
		respondErrorWith(c, http.StatusBadRequest, ErrCodeVersionConflict, conflict.Error(), gin.H{
			"current_version": conflict.Current.Version,
			"current":         conflict.Current,
		})
	case errors.As(err, &partial):
		respondErrorWith(c, http.StatusBadRequest, ErrCodeNotFound, partial.Error(), gin.H{"missing_ids": partial.Missing})
	case errors.Is(err, models.ErrIssueNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "issue not found")
	case errors.Is(err, models.ErrUserNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	case errors.Is(err, models.ErrLabelNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "label not found")
	case errors.Is(err, models.ErrCommentNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "comment not found")
	case errors.Is(err, models.ErrDuplicateKey):
		respondError(c, http.StatusConflict, ErrCodeConflict, "resource already exists")
	default:
		middleware.RequestLogger(c, log).WithError(err).Error(op)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
