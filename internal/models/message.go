package models

import (
	"time"
)

// Role identifies the author of a message. Immutable after creation.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Mode is the per-persona conversation mode. Game mode makes the model
// propose suggested replies for the user to pick from.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeGame   Mode = "game"
)

// Message is one turn in a conversation. Messages are append-only: once
// created they are never reordered or rewritten.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	// Model-only fields. Thought and Action are not spoken aloud.
	Thought string   `json:"thought,omitempty"`
	Action  string   `json:"action,omitempty"`
	Options []string `json:"user_response_options,omitempty"`

	// Optional generated-image reference.
	ImagePrompt  string `json:"image_prompt,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	ImagePending bool   `json:"image_pending,omitempty"`
}

// SendMessageRequest is the payload for a user turn.
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// SetModeRequest toggles a conversation's mode.
type SetModeRequest struct {
	Mode Mode `json:"mode" binding:"required"`
}
