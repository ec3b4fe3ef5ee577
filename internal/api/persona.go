package api

import (
	"errors"
	"net/http"

	"ai-persona-chat/backend/ai"
	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/scheduler"
	"ai-persona-chat/backend/internal/service"
	apperrors "ai-persona-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type PersonaHandler struct {
	personas *service.PersonaService
	conv     *service.ConversationService
	sched    *scheduler.Scheduler
	gateway  *ai.Gateway
}

func NewPersonaHandler(personas *service.PersonaService, conv *service.ConversationService, sched *scheduler.Scheduler, gateway *ai.Gateway) *PersonaHandler {
	return &PersonaHandler{personas: personas, conv: conv, sched: sched, gateway: gateway}
}

func (h *PersonaHandler) ListPersonas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"personas": h.personas.List()})
}

func (h *PersonaHandler) GetPersona(c *gin.Context) {
	persona, err := h.personas.Get(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewNotFoundError("PERSONA_NOT_FOUND", "persona not found"))
		return
	}
	c.JSON(http.StatusOK, persona)
}

func (h *PersonaHandler) CreatePersona(c *gin.Context) {
	var req models.CreatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	persona, err := h.personas.Create(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, persona)
}

func (h *PersonaHandler) UpdatePersona(c *gin.Context) {
	var req models.CreatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	persona, err := h.personas.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrPersonaNotFound) {
			c.Error(apperrors.NewNotFoundError("PERSONA_NOT_FOUND", "persona not found"))
			return
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, persona)
}

// DeletePersona removes the persona, its conversation and any pending
// engagement timers.
func (h *PersonaHandler) DeletePersona(c *gin.Context) {
	id := c.Param("id")

	h.sched.Deactivate(id)

	if err := h.personas.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrPersonaNotFound) {
			c.Error(apperrors.NewNotFoundError("PERSONA_NOT_FOUND", "persona not found"))
			return
		}
		c.Error(err)
		return
	}

	if err := h.conv.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GeneratePersona runs the creation quiz answers through the model and
// persists the resulting persona.
func (h *PersonaHandler) GeneratePersona(c *gin.Context) {
	var req models.GeneratePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}
	if len(req.Answers) == 0 {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "at least one quiz answer is required"))
		return
	}

	draft, err := h.gateway.GeneratePersona(c.Request.Context(), req.Answers)
	if err != nil {
		c.Error(apperrors.NewBadGatewayError("MODEL_UNAVAILABLE", "persona generation failed"))
		return
	}

	persona, err := h.personas.Create(c.Request.Context(), &models.CreatePersonaRequest{
		Name:        draft.Name,
		Avatar:      draft.Avatar,
		Personality: draft.Personality,
		Memory:      draft.Memory,
		Purpose:     draft.Purpose,
		Language:    draft.Language,
		Gender:      draft.Gender,
		VoicePitch:  draft.VoicePitch,
		VoiceRate:   draft.VoiceRate,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, persona)
}
