package service

import (
	"context"
	"fmt"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/prompt"
)

// transcriptAnalyzer is the gateway surface the analysis service needs.
type transcriptAnalyzer interface {
	Analyze(ctx context.Context, transcript string) (models.AnalysisReport, error)
}

// AnalysisService produces on-demand personality reports about the user.
// Reports are derived snapshots and never persisted.
type AnalysisService struct {
	personas *PersonaService
	conv     *ConversationService
	gateway  transcriptAnalyzer
}

// NewAnalysisService wires the analysis pipeline.
func NewAnalysisService(personas *PersonaService, conv *ConversationService, gateway transcriptAnalyzer) *AnalysisService {
	return &AnalysisService{personas: personas, conv: conv, gateway: gateway}
}

// Analyze builds a labeled transcript and requests one structured report.
// With fewer than two user turns it rejects before any external call.
func (s *AnalysisService) Analyze(ctx context.Context, personaID string) (models.AnalysisReport, error) {
	persona, err := s.personas.Get(personaID)
	if err != nil {
		return models.AnalysisReport{}, err
	}

	if s.conv.UserTurns(personaID) < 2 {
		return models.AnalysisReport{}, ErrInsufficientHistory
	}

	transcript := prompt.Transcript(persona.Name, s.conv.History(personaID))
	report, err := s.gateway.Analyze(ctx, transcript)
	if err != nil {
		return models.AnalysisReport{}, fmt.Errorf("analyzing conversation with %s: %w", persona.Name, err)
	}
	return report, nil
}
