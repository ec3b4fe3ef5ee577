// Package ai wraps every call to the external generative-model and speech
// APIs. The Gateway owns prompt construction and reply decoding; transport
// is behind the ChatClient interface so tests can substitute a fake.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/prompt"
	"ai-persona-chat/backend/pkg/logger"
	"ai-persona-chat/backend/shared/observability"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// ChatClient performs one structured-output round trip against the model
// API: a fresh session seeded with history, one new turn, one reply.
type ChatClient interface {
	Complete(ctx context.Context, instruction string, schema *genai.Schema, history []Turn, text string) (string, error)
}

// Gateway is the boundary around the external generative model. Callers are
// responsible for keeping at most one call in flight per conversation.
type Gateway struct {
	client ChatClient
	log    *logger.Logger
}

// NewGateway creates a Gateway on top of the given transport.
func NewGateway(client ChatClient, log *logger.Logger) *Gateway {
	return &Gateway{client: client, log: log}
}

// Send issues exactly one conversation turn. A malformed reply body is
// recovered locally (see decodeReply) and never returned as an error;
// transport failure is returned to the caller, who owns the user-visible
// error handling.
func (g *Gateway) Send(ctx context.Context, persona *models.Persona, mode models.Mode, history []models.Message, text string) (models.Message, error) {
	instruction := prompt.SystemInstruction(persona, mode)
	schema := prompt.ResponseSchema(mode)

	raw, err := g.client.Complete(ctx, instruction, schema, historyToTurns(history), text)
	if err != nil {
		observability.GatewayFailures.Add(ctx, 1)
		return models.Message{}, fmt.Errorf("model call for persona %s: %w", persona.ID, err)
	}
	observability.GatewayCalls.Add(ctx, 1)

	return g.decodeReply(raw), nil
}

// Analyze issues a one-shot personality-report call over a serialized
// transcript. Decoding failures surface as errors, never as empty reports.
func (g *Gateway) Analyze(ctx context.Context, transcript string) (models.AnalysisReport, error) {
	raw, err := g.client.Complete(ctx, prompt.AnalysisInstruction(), prompt.AnalysisSchema(), nil, transcript)
	if err != nil {
		observability.GatewayFailures.Add(ctx, 1)
		return models.AnalysisReport{}, fmt.Errorf("analysis call: %w", err)
	}
	observability.GatewayCalls.Add(ctx, 1)

	var report models.AnalysisReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return models.AnalysisReport{}, fmt.Errorf("decoding analysis report: %w", err)
	}
	return report, nil
}

// GeneratePersona turns quiz answers into a persona draft. The draft has no
// ID and is not persisted; the caller saves it through the persona service.
func (g *Gateway) GeneratePersona(ctx context.Context, answers []models.QuizAnswer) (models.Persona, error) {
	raw, err := g.client.Complete(ctx, prompt.GenerationInstruction(), prompt.GenerationSchema(), nil, prompt.GenerationPrompt(answers))
	if err != nil {
		observability.GatewayFailures.Add(ctx, 1)
		return models.Persona{}, fmt.Errorf("persona generation call: %w", err)
	}
	observability.GatewayCalls.Add(ctx, 1)

	var draft models.Persona
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return models.Persona{}, fmt.Errorf("decoding persona draft: %w", err)
	}
	return draft, nil
}

const (
	// emptyDialoguePlaceholder stands in when the model returns valid JSON
	// without any spoken text.
	emptyDialoguePlaceholder = "..."
	// emptyReplyFallback stands in when the reply body is empty altogether.
	emptyReplyFallback = "I'm not sure what to say."
)

// decodeReply maps a raw reply body into a Message. Parse failures degrade
// to showing the raw body verbatim; an empty body degrades to a fixed
// fallback line. This function never fails.
func (g *Gateway) decodeReply(raw string) models.Message {
	msg := models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleModel,
		Timestamp: time.Now(),
	}

	var reply structuredReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		if raw == "" {
			msg.Text = emptyReplyFallback
		} else {
			g.log.Warn("reply body is not valid JSON, showing it verbatim", "error", err.Error())
			msg.Text = raw
		}
		return msg
	}

	msg.Text = reply.Dialogue
	if msg.Text == "" {
		msg.Text = emptyDialoguePlaceholder
	}
	msg.Thought = reply.Thought
	msg.Action = reply.Action
	msg.ImagePrompt = reply.ImagePrompt
	msg.Options = reply.UserResponseOptions
	return msg
}
