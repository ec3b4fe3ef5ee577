package ai

import (
	"ai-persona-chat/backend/internal/models"
)

// Turn is one prior exchange in the external API's turn format.
type Turn struct {
	Role models.Role
	Text string
}

// structuredReply is the JSON shape the model is asked to produce for a
// conversation turn. Only Dialogue is required by the schema.
type structuredReply struct {
	Dialogue            string   `json:"dialogue"`
	Thought             string   `json:"thought"`
	Action              string   `json:"action"`
	ImagePrompt         string   `json:"image_prompt"`
	UserResponseOptions []string `json:"user_response_options"`
}

// historyToTurns translates stored messages into the wire turn format.
func historyToTurns(history []models.Message) []Turn {
	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, Turn{Role: m.Role, Text: m.Text})
	}
	return turns
}
