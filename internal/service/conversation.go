package service

import (
	"context"
	"fmt"
	"sync"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/store"
)

// ConversationService owns every persona's message history and conversation
// mode. Histories are append-only; the mode is a runtime setting and is not
// persisted.
type ConversationService struct {
	store *store.Store

	mu            sync.RWMutex
	conversations map[string][]models.Message
	modes         map[string]models.Mode
}

// NewConversationService loads the persisted conversation map.
func NewConversationService(ctx context.Context, st *store.Store) (*ConversationService, error) {
	conversations, err := st.LoadConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading conversations: %w", err)
	}
	return &ConversationService{
		store:         st,
		conversations: conversations,
		modes:         make(map[string]models.Mode),
	}, nil
}

// History returns a copy of the persona's conversation in append order.
func (s *ConversationService) History(personaID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.conversations[personaID]
	out := make([]models.Message, len(history))
	copy(out, history)
	return out
}

// Append adds one message to the persona's conversation and rewrites the
// conversations slot. Existing messages are never touched.
func (s *ConversationService) Append(ctx context.Context, personaID string, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[personaID] = append(s.conversations[personaID], msg)
	if err := s.store.SaveConversations(ctx, s.conversations); err != nil {
		history := s.conversations[personaID]
		s.conversations[personaID] = history[:len(history)-1]
		return fmt.Errorf("persisting conversations: %w", err)
	}
	return nil
}

// Delete removes a persona's conversation and mode, used when the persona
// itself is deleted. Deleting a missing conversation is a no-op.
func (s *ConversationService) Delete(ctx context.Context, personaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[personaID]; !ok {
		delete(s.modes, personaID)
		return nil
	}
	removed := s.conversations[personaID]
	delete(s.conversations, personaID)
	delete(s.modes, personaID)
	if err := s.store.SaveConversations(ctx, s.conversations); err != nil {
		s.conversations[personaID] = removed
		return fmt.Errorf("persisting conversations: %w", err)
	}
	return nil
}

// Mode returns the persona's conversation mode, defaulting to normal.
func (s *ConversationService) Mode(personaID string) models.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if mode, ok := s.modes[personaID]; ok {
		return mode
	}
	return models.ModeNormal
}

// SetMode switches the persona's conversation mode for subsequent turns.
func (s *ConversationService) SetMode(personaID string, mode models.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[personaID] = mode
}

// UserTurns counts the user's messages in a conversation.
func (s *ConversationService) UserTurns(personaID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, m := range s.conversations[personaID] {
		if m.Role == models.RoleUser {
			count++
		}
	}
	return count
}
