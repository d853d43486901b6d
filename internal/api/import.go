package api

import (
	"bytes"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/middleware"
)

// DefaultMaxImportBytes bounds an uploaded CSV file when no limit is configured.
const DefaultMaxImportBytes = 10 << 20

// ImportHandler serves the CSV import endpoint.
type ImportHandler struct {
	svc      ImportService
	log      *logrus.Logger
	maxBytes int64
}

// NewImportHandler creates an ImportHandler. A non-positive maxBytes uses
// DefaultMaxImportBytes.
func NewImportHandler(svc ImportService, log *logrus.Logger, maxBytes int64) *ImportHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImportBytes
	}

	return &ImportHandler{svc: svc, log: log, maxBytes: maxBytes}
}

// Import handles POST /api/v1/issues/import. The file is accepted either as
// the multipart form field "file" or as a raw text/csv body.
func (h *ImportHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	src, closeFn, ok := h.source(c)
	if !ok {
		return
	}
	defer closeFn()

	report, err := h.svc.ImportCSV(c.Request.Context(), src)
	if err != nil {
		respondServiceError(c, h.log, "importing csv", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":     "issue.import",
		"total_rows": report.TotalRows,
		"successful": report.Successful,
		"failed":     report.Failed,
	}).Info("audit")

	c.JSON(http.StatusOK, report)
}

// source picks the CSV file out of the request. The whole file is received
// before it is handed to the service, so an oversized upload is refused
// before any row is imported.
func (h *ImportHandler) source(c *gin.Context) (io.Reader, func(), bool) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type")) //nolint:errcheck // empty type handled below.

	switch mediaType {
	case "multipart/form-data":
		fh, err := c.FormFile("file")
		if err != nil {
			if middleware.BodyTooLarge(err) {
				respondError(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "import file too large")

				return nil, nil, false
			}

			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "multipart field 'file' is required")

			return nil, nil, false
		}

		f, err := fh.Open()
		if err != nil {
			h.log.WithError(err).Error("opening uploaded file")
			respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

			return nil, nil, false
		}

		return f, func() { f.Close() }, true //nolint:errcheck // read-only upload.
	case "text/csv", "text/plain", "application/csv":
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			if middleware.BodyTooLarge(err) {
				respondError(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "import file too large")

				return nil, nil, false
			}

			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "could not read request body")

			return nil, nil, false
		}

		return bytes.NewReader(data), func() {}, true
	default:
		respondError(c, http.StatusUnsupportedMediaType, ErrCodeInvalidRequest, "expected multipart/form-data or text/csv")

		return nil, nil, false
	}
}
