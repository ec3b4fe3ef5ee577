package api

import (
	"errors"
	"net/http"

	"ai-persona-chat/backend/internal/service"
	apperrors "ai-persona-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	analysis *service.AnalysisService
}

func NewAnalysisHandler(analysis *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

// Analyze builds a report about the user from their side of the
// conversation. At least two user turns are required.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	report, err := h.analysis.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPersonaNotFound):
			c.Error(apperrors.NewNotFoundError("PERSONA_NOT_FOUND", "persona not found"))
		case errors.Is(err, service.ErrInsufficientHistory):
			c.Error(apperrors.NewUnprocessableError("INSUFFICIENT_HISTORY", "at least two user messages are required for analysis"))
		default:
			c.Error(apperrors.NewBadGatewayError("MODEL_UNAVAILABLE", "analysis failed"))
		}
		return
	}
	c.JSON(http.StatusOK, report)
}
