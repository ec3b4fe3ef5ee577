package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/store"

	"github.com/google/uuid"
)

// PersonaService owns the persona list. State is loaded from the store once
// at construction and rewritten in full on every mutation.
type PersonaService struct {
	store *store.Store

	mu       sync.RWMutex
	personas []models.Persona
}

// NewPersonaService loads the persisted persona list.
func NewPersonaService(ctx context.Context, st *store.Store) (*PersonaService, error) {
	personas, err := st.LoadPersonas(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading personas: %w", err)
	}
	return &PersonaService{store: st, personas: personas}, nil
}

// List returns all personas in creation order.
func (s *PersonaService) List() []models.Persona {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Persona, len(s.personas))
	copy(out, s.personas)
	return out
}

// Get returns one persona by id.
func (s *PersonaService) Get(id string) (*models.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.personas {
		if s.personas[i].ID == id {
			p := s.personas[i]
			return &p, nil
		}
	}
	return nil, ErrPersonaNotFound
}

// Create validates and saves a new persona. An empty purpose is assigned
// from the fixed fallback pool so the prompt always has one.
func (s *PersonaService) Create(ctx context.Context, req *models.CreatePersonaRequest) (*models.Persona, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	now := time.Now()
	persona := models.Persona{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Avatar:      req.Avatar,
		Personality: req.Personality,
		Memory:      req.Memory,
		Purpose:     req.Purpose,
		Language:    defaultIfEmpty(req.Language, "en-US"),
		Gender:      req.Gender,
		VoicePitch:  req.VoicePitch,
		VoiceRate:   req.VoiceRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if persona.Gender == "" {
		persona.Gender = models.GenderNeutral
	}
	if persona.VoicePitch == "" {
		persona.VoicePitch = models.PitchMedium
	}
	if persona.VoiceRate == "" {
		persona.VoiceRate = models.RateNormal
	}
	if persona.Purpose == "" {
		persona.Purpose = models.FallbackPurposeFor(persona.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.personas = append(s.personas, persona)
	if err := s.store.SavePersonas(ctx, s.personas); err != nil {
		s.personas = s.personas[:len(s.personas)-1]
		return nil, fmt.Errorf("persisting personas: %w", err)
	}
	return &persona, nil
}

// Update rewrites a persona's editable fields. The id and creation time are
// immutable.
func (s *PersonaService) Update(ctx context.Context, id string, req *models.CreatePersonaRequest) (*models.Persona, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.personas {
		if s.personas[i].ID != id {
			continue
		}
		previous := s.personas[i]

		p := &s.personas[i]
		p.Name = req.Name
		p.Avatar = req.Avatar
		p.Personality = req.Personality
		p.Memory = req.Memory
		p.Purpose = req.Purpose
		if p.Purpose == "" {
			p.Purpose = models.FallbackPurposeFor(p.ID)
		}
		p.Language = defaultIfEmpty(req.Language, previous.Language)
		if req.Gender != "" {
			p.Gender = req.Gender
		}
		if req.VoicePitch != "" {
			p.VoicePitch = req.VoicePitch
		}
		if req.VoiceRate != "" {
			p.VoiceRate = req.VoiceRate
		}
		p.UpdatedAt = time.Now()

		if err := s.store.SavePersonas(ctx, s.personas); err != nil {
			s.personas[i] = previous
			return nil, fmt.Errorf("persisting personas: %w", err)
		}
		updated := *p
		return &updated, nil
	}
	return nil, ErrPersonaNotFound
}

// Delete removes a persona. The caller is responsible for deleting its
// conversation alongside it.
func (s *PersonaService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.personas {
		if s.personas[i].ID != id {
			continue
		}
		removed := s.personas[i]
		s.personas = append(s.personas[:i], s.personas[i+1:]...)
		if err := s.store.SavePersonas(ctx, s.personas); err != nil {
			s.personas = append(s.personas[:i], append([]models.Persona{removed}, s.personas[i:]...)...)
			return fmt.Errorf("persisting personas: %w", err)
		}
		return nil
	}
	return ErrPersonaNotFound
}

func validate(req *models.CreatePersonaRequest) error {
	if req.Name == "" {
		return errors.New("persona name is required")
	}
	if req.Personality == "" {
		return errors.New("persona personality is required")
	}
	return nil
}

func defaultIfEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
