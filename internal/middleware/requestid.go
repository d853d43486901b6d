package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"

	// RequestIDHeader is the HTTP header used to propagate the request ID.
	RequestIDHeader = "X-Request-ID"

	loggerKey = "request_logger"

	// maxClientIDLen bounds how much of a client-supplied id reaches the logs.
	maxClientIDLen = 64
)

// RequestID gives every request a server-generated UUID, echoes it in
// X-Request-ID and stores a log entry carrying it for RequestLogger. A
// client-supplied X-Request-ID is only recorded as client_request_id.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		entry := log.WithField("request_id", id)

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" {
			if len(clientID) > maxClientIDLen {
				clientID = clientID[:maxClientIDLen]
			}

			entry = entry.WithField("client_request_id", clientID)
		}

		c.Set(RequestIDKey, id)
		c.Set(loggerKey, entry)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger returns the entry stored by RequestID, or a plain entry on
// log when the middleware did not run.
func RequestLogger(c *gin.Context, log *logrus.Logger) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}

	return logrus.NewEntry(log)
}
