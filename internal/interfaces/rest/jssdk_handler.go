package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crazygit/ewerobot/pkg/wechat"
)

// JSSDKHandler signs JS-SDK configurations for front-end pages
type JSSDKHandler struct {
	client *wechat.Client
}

// NewJSSDKHandler creates a JSSDKHandler
func NewJSSDKHandler(client *wechat.Client) *JSSDKHandler {
	return &JSSDKHandler{client: client}
}

// ConfigRequest is the body of POST /api/jssdk/config
type ConfigRequest struct {
	// URL is the current page URL without the '#' fragment
	URL string `json:"url" binding:"required"`
}

// GetConfig handles POST /api/jssdk/config
func (h *JSSDKHandler) GetConfig(c *gin.Context) {
	var req ConfigRequest
	if !BindJSON(c, &req) {
		return
	}

	cfg, err := h.client.JSSDKSign(c.Request.Context(), req.URL)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
