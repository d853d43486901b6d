package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/tracker/internal/httputil"
)

// CodePayloadTooLarge is the error code for bodies over the configured limit.
const CodePayloadTooLarge = "payload_too_large"

// MaxBodySize caps request bodies at maxBytes. A declared Content-Length over
// the cap is refused with 413 before the handler runs; bodies of unknown
// length are cut off by http.MaxBytesReader and surface as BodyTooLarge
// errors when read.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	limit := strconv.FormatInt(maxBytes, 10)

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httputil.RespondError(c, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				"request body exceeds "+limit+" bytes")

			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}

// BodyTooLarge reports whether err came from reading past a body limit.
func BodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError

	return errors.As(err, &tooLarge)
}
