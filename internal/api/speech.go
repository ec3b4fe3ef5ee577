package api

import (
	"io"
	"net/http"

	"ai-persona-chat/backend/ai"
	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/service"
	apperrors "ai-persona-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// maxAudioUpload caps speech-to-text uploads at 10 MB.
const maxAudioUpload = 10 << 20

type SpeechHandler struct {
	speech   *ai.SpeechService
	personas *service.PersonaService
}

func NewSpeechHandler(speech *ai.SpeechService, personas *service.PersonaService) *SpeechHandler {
	return &SpeechHandler{speech: speech, personas: personas}
}

func (h *SpeechHandler) Capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, h.speech.Capabilities())
}

// TextToSpeechRequest asks for synthesized audio. When a persona id is
// given its voice rate applies; an explicit rate overrides it.
type TextToSpeechRequest struct {
	Text      string           `json:"text" binding:"required"`
	VoiceID   string           `json:"voice_id"`
	PersonaID string           `json:"persona_id"`
	Rate      models.RateLevel `json:"rate"`
}

func (h *SpeechHandler) TextToSpeech(c *gin.Context) {
	if !h.speech.Capabilities().TextToSpeech {
		c.Error(apperrors.NewServiceUnavailableError("TTS_DISABLED", "text-to-speech is not configured"))
		return
	}

	var req TextToSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	rate := req.Rate
	if rate == "" && req.PersonaID != "" {
		if persona, err := h.personas.Get(req.PersonaID); err == nil {
			rate = persona.VoiceRate
		}
	}
	if rate == "" {
		rate = models.RateNormal
	}

	audio, err := h.speech.TextToSpeech(c.Request.Context(), req.Text, req.VoiceID, rate)
	if err != nil {
		c.Error(apperrors.NewBadGatewayError("TTS_FAILED", "speech synthesis failed"))
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// Transcribe accepts a multipart upload under the "audio" field and returns
// the recognized text.
func (h *SpeechHandler) Transcribe(c *gin.Context) {
	if !h.speech.Capabilities().SpeechToText {
		c.Error(apperrors.NewServiceUnavailableError("STT_DISABLED", "speech-to-text is not configured"))
		return
	}

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "an audio file is required"))
		return
	}
	defer file.Close()

	if header.Size > maxAudioUpload {
		c.Error(apperrors.NewBadRequestError("AUDIO_TOO_LARGE", "audio upload exceeds the 10 MB limit"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAudioUpload))
	if err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "failed to read audio upload"))
		return
	}

	text, err := h.speech.Transcribe(c.Request.Context(), data, header.Filename)
	if err != nil {
		c.Error(apperrors.NewBadGatewayError("STT_FAILED", "transcription failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}
