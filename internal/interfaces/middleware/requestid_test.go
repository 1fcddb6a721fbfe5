package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/crazygit/ewerobot/pkg/utils"
)

func TestRequestIDGenerated(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		assert.True(t, utils.IsValidUUID(c.GetString(ContextKeyRequestID)))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.True(t, utils.IsValidUUID(w.Header().Get(HeaderRequestID)))
}

func TestRequestIDPreserved(t *testing.T) {
	const upstream = "2d9f2a4e-7c1b-4c52-9a49-4f63f1a6b111"

	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		assert.Equal(t, upstream, c.GetString(ContextKeyRequestID))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderRequestID, upstream)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, upstream, w.Header().Get(HeaderRequestID))
}

func TestRequestIDRejectsGarbage(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	id := w.Header().Get(HeaderRequestID)
	assert.NotEqual(t, "not-a-uuid", id)
	assert.True(t, utils.IsValidUUID(id))
}
