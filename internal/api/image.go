package api

import (
	"net/http"

	"ai-persona-chat/backend/ai"
	apperrors "ai-persona-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type ImageHandler struct {
	images *ai.ImageService
}

func NewImageHandler(images *ai.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// GenerateImageRequest carries an image prompt the model proposed.
type GenerateImageRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// Generate renders an image for a prompt and returns its URL. Message
// history is never touched here; the client pairs the URL with the message
// that carried the prompt.
func (h *ImageHandler) Generate(c *gin.Context) {
	if h.images == nil {
		c.Error(apperrors.NewServiceUnavailableError("IMAGES_DISABLED", "image generation is not configured"))
		return
	}

	var req GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	url, err := h.images.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		c.Error(apperrors.NewBadGatewayError("IMAGE_FAILED", "image generation failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
