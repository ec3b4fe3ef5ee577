package api

import (
	"errors"
	"net/http"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/scheduler"
	"ai-persona-chat/backend/internal/service"
	apperrors "ai-persona-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	personas *service.PersonaService
	conv     *service.ConversationService
	sched    *scheduler.Scheduler
}

func NewMessageHandler(personas *service.PersonaService, conv *service.ConversationService, sched *scheduler.Scheduler) *MessageHandler {
	return &MessageHandler{personas: personas, conv: conv, sched: sched}
}

func (h *MessageHandler) GetMessages(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.personas.Get(id); err != nil {
		c.Error(apperrors.NewNotFoundError("PERSONA_NOT_FOUND", "persona not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": h.conv.History(id),
		"mode":     h.conv.Mode(id),
	})
}

// SendMessage submits one user turn and responds with the persona's reply.
// A second send while a reply is in flight is rejected with 409.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	id := c.Param("id")

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	reply, err := h.sched.Send(c.Request.Context(), id, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPersonaNotFound):
			c.Error(apperrors.NewNotFoundError("PERSONA_NOT_FOUND", "persona not found"))
		case errors.Is(err, scheduler.ErrBusy):
			c.Error(apperrors.NewConflictError("REPLY_IN_FLIGHT", "a reply is already being generated"))
		default:
			c.Error(apperrors.NewBadGatewayError("MODEL_UNAVAILABLE", "the persona could not reply"))
		}
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *MessageHandler) SetMode(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.personas.Get(id); err != nil {
		c.Error(apperrors.NewNotFoundError("PERSONA_NOT_FOUND", "persona not found"))
		return
	}

	var req models.SetModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}
	if req.Mode != models.ModeNormal && req.Mode != models.ModeGame {
		c.Error(apperrors.NewBadRequestError("INVALID_MODE", "mode must be normal or game"))
		return
	}

	h.conv.SetMode(id, req.Mode)
	c.JSON(http.StatusOK, gin.H{"mode": req.Mode})
}

// Activate marks the persona as the one on screen, arming the greeting
// timer if its conversation is still empty.
func (h *MessageHandler) Activate(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.personas.Get(id); err != nil {
		c.Error(apperrors.NewNotFoundError("PERSONA_NOT_FOUND", "persona not found"))
		return
	}
	h.sched.Activate(id)
	c.JSON(http.StatusOK, gin.H{"state": h.sched.State(id)})
}

// Deactivate cancels pending engagement timers for the persona.
func (h *MessageHandler) Deactivate(c *gin.Context) {
	h.sched.Deactivate(c.Param("id"))
	c.Status(http.StatusNoContent)
}
