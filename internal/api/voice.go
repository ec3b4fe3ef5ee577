package api

import (
	"net/http"

	"ai-persona-chat/backend/internal/service"
	"ai-persona-chat/backend/internal/voice"
	apperrors "ai-persona-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type VoiceHandler struct {
	personas *service.PersonaService
	selector *voice.Selector
}

func NewVoiceHandler(personas *service.PersonaService, selector *voice.Selector) *VoiceHandler {
	return &VoiceHandler{personas: personas, selector: selector}
}

// SelectVoiceRequest carries the synthesis voices the browser reported.
type SelectVoiceRequest struct {
	PersonaID string        `json:"persona_id" binding:"required"`
	Voices    []voice.Voice `json:"voices"`
}

// SelectVoice picks the best voice for a persona from the client's set.
// An empty set is not an error; the response simply carries no voice.
func (h *VoiceHandler) SelectVoice(c *gin.Context) {
	var req SelectVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	persona, err := h.personas.Get(req.PersonaID)
	if err != nil {
		c.Error(apperrors.NewNotFoundError("PERSONA_NOT_FOUND", "persona not found"))
		return
	}

	selected, ok := h.selector.Select(persona, req.Voices)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"voice": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"voice": selected})
}
