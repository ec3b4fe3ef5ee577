// Package store persists the application's two state blobs: the persona
// list and the per-persona conversation map. Both slots are read once at
// startup and rewritten in full on every mutation.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-persona-chat/backend/internal/models"
)

// Slot names for the two persisted blobs.
const (
	SlotPersonas      = "personas"
	SlotConversations = "conversations"
)

// Backend reads and writes named blobs. A missing slot reads as nil with
// no error.
type Backend interface {
	Read(ctx context.Context, slot string) ([]byte, error)
	Write(ctx context.Context, slot string, data []byte) error
	Ping(ctx context.Context) error
}

// Store exposes the typed slots over any blob backend.
type Store struct {
	backend Backend
}

// New wraps a backend in the typed store.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// LoadPersonas reads the persona list slot. A missing slot is an empty list.
func (s *Store) LoadPersonas(ctx context.Context) ([]models.Persona, error) {
	data, err := s.backend.Read(ctx, SlotPersonas)
	if err != nil {
		return nil, fmt.Errorf("reading %s slot: %w", SlotPersonas, err)
	}
	if data == nil {
		return []models.Persona{}, nil
	}

	var personas []models.Persona
	if err := json.Unmarshal(data, &personas); err != nil {
		return nil, fmt.Errorf("decoding %s slot: %w", SlotPersonas, err)
	}
	return personas, nil
}

// SavePersonas rewrites the persona list slot in full.
func (s *Store) SavePersonas(ctx context.Context, personas []models.Persona) error {
	data, err := json.Marshal(personas)
	if err != nil {
		return fmt.Errorf("encoding %s slot: %w", SlotPersonas, err)
	}
	if err := s.backend.Write(ctx, SlotPersonas, data); err != nil {
		return fmt.Errorf("writing %s slot: %w", SlotPersonas, err)
	}
	return nil
}

// LoadConversations reads the conversation map slot. A missing slot is an
// empty map.
func (s *Store) LoadConversations(ctx context.Context) (map[string][]models.Message, error) {
	data, err := s.backend.Read(ctx, SlotConversations)
	if err != nil {
		return nil, fmt.Errorf("reading %s slot: %w", SlotConversations, err)
	}
	if data == nil {
		return map[string][]models.Message{}, nil
	}

	var conversations map[string][]models.Message
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, fmt.Errorf("decoding %s slot: %w", SlotConversations, err)
	}
	return conversations, nil
}

// SaveConversations rewrites the conversation map slot in full.
func (s *Store) SaveConversations(ctx context.Context, conversations map[string][]models.Message) error {
	data, err := json.Marshal(conversations)
	if err != nil {
		return fmt.Errorf("encoding %s slot: %w", SlotConversations, err)
	}
	if err := s.backend.Write(ctx, SlotConversations, data); err != nil {
		return fmt.Errorf("writing %s slot: %w", SlotConversations, err)
	}
	return nil
}

// Ping reports backend reachability for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
