package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the HTTP header used to propagate the request identifier.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key under which the request ID string is
	// stored so handlers and logging can read it without parsing headers.
	RequestIDKey = "request_id"

	// maxRequestIDLength caps accepted inbound identifiers. Longer values are
	// discarded and replaced, since the ID ends up verbatim in every log line
	// for the request.
	maxRequestIDLength = 64
)

// RequestIDMiddleware ensures every request carries an identifier, reusing an
// inbound X-Request-ID when a gateway already assigned one and minting a UUID
// otherwise. The ID is echoed in the response header and attached to the
// request's log record, which is how a 5xx reported by an API client gets
// matched to its server-side entry.
//
// Inbound values are only trusted within limits: anything overlong or
// containing characters outside [A-Za-z0-9._-] is replaced, so a hostile
// client cannot splice arbitrary text into the logs.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_' || ch == '.':
		default:
			return false
		}
	}
	return true
}
