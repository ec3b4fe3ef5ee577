package ai

import (
	"context"
	"fmt"

	"ai-persona-chat/backend/internal/models"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// GenaiClient is the Gemini-backed ChatClient. Every Complete call opens a
// fresh chat session scoped to that call, seeded with the prior turns.
type GenaiClient struct {
	client *genai.Client
	model  string
}

// NewGenaiClient connects to the Gemini API. An empty model selects the default.
func NewGenaiClient(ctx context.Context, apiKey, model string) (*GenaiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GenaiClient{client: client, model: model}, nil
}

// Complete seeds a chat with history, sends one turn and returns the raw
// reply body. A reply suppressed by the API (no candidates) returns an empty
// body with no error; the Gateway degrades it to a fallback message.
func (c *GenaiClient) Complete(ctx context.Context, instruction string, schema *genai.Schema, history []Turn, text string) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		ResponseSchema:    schema,
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == models.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	chat, err := c.client.Chats.Create(ctx, c.model, config, contents)
	if err != nil {
		return "", fmt.Errorf("creating chat session: %w", err)
	}

	res, err := chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("sending message: %w", err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return res.Candidates[0].Content.Parts[0].Text, nil
}
