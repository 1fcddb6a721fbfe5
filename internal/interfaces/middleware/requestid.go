package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/crazygit/ewerobot/pkg/utils"
)

// HeaderRequestID carries the request correlation id
const HeaderRequestID = "X-Request-ID"

// ContextKeyRequestID is where the correlation id is stored in the context
const ContextKeyRequestID = "request_id"

// RequestID tags every request with a correlation id, keeping a valid one
// supplied by an upstream proxy
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if !utils.IsValidUUID(id) {
			id = utils.GenerateID()
		}
		c.Set(ContextKeyRequestID, id)
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}
