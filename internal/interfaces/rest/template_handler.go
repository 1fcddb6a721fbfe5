package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crazygit/ewerobot/pkg/wechat"
)

// TemplateHandler exposes template-message administration
type TemplateHandler struct {
	client *wechat.Client
}

// NewTemplateHandler creates a TemplateHandler
func NewTemplateHandler(client *wechat.Client) *TemplateHandler {
	return &TemplateHandler{client: client}
}

// GetIndustry handles GET /api/templates/industry
func (h *TemplateHandler) GetIndustry(c *gin.Context) {
	info, err := h.client.GetIndustry(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// SetIndustryRequest is the body of PUT /api/templates/industry
type SetIndustryRequest struct {
	IndustryID1 string `json:"industry_id1" binding:"required"`
	IndustryID2 string `json:"industry_id2" binding:"required"`
}

// SetIndustry handles PUT /api/templates/industry
func (h *TemplateHandler) SetIndustry(c *gin.Context) {
	var req SetIndustryRequest
	if !BindJSON(c, &req) {
		return
	}
	if err := h.client.SetIndustry(c.Request.Context(), req.IndustryID1, req.IndustryID2); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// List handles GET /api/templates
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.client.ListTemplates(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// AddRequest is the body of POST /api/templates
type AddRequest struct {
	TemplateIDShort string `json:"template_id_short" binding:"required"`
}

// Add handles POST /api/templates
func (h *TemplateHandler) Add(c *gin.Context) {
	var req AddRequest
	if !BindJSON(c, &req) {
		return
	}
	id, err := h.client.AddTemplate(c.Request.Context(), req.TemplateIDShort)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template_id": id})
}

// Delete handles DELETE /api/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.client.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
