package middleware

import (
	"net/http"

	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit caps the request body size. Telephony provider callbacks and API
// payloads are small; anything above maxBytes is rejected before binding.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(
					dto.ErrCodePayloadTooLarge,
					"request body exceeds the maximum allowed size",
					c.GetString(RequestIDKey),
				))
			return
		}

		// Chunked requests have ContentLength -1; the limited reader still
		// enforces the cap while the body streams.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
