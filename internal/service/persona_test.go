package service

import (
	"context"
	"testing"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersonaService(t *testing.T) (*PersonaService, *store.Store) {
	t.Helper()
	st := store.New(store.NewMemoryBackend())
	svc, err := NewPersonaService(context.Background(), st)
	require.NoError(t, err)
	return svc, st
}

func TestCreatePersonaAppliesDefaults(t *testing.T) {
	svc, _ := newTestPersonaService(t)

	p, err := svc.Create(context.Background(), &models.CreatePersonaRequest{
		Name:        "Luna",
		Personality: "warm",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "en-US", p.Language)
	assert.Equal(t, models.GenderNeutral, p.Gender)
	assert.Equal(t, models.PitchMedium, p.VoicePitch)
	assert.Equal(t, models.RateNormal, p.VoiceRate)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestCreatePersonaEmptyPurposeDrawsFromPool(t *testing.T) {
	svc, _ := newTestPersonaService(t)

	p, err := svc.Create(context.Background(), &models.CreatePersonaRequest{
		Name:        "Luna",
		Personality: "warm",
	})

	require.NoError(t, err)
	assert.Contains(t, models.FallbackPurposes[:], p.Purpose)
	assert.Equal(t, models.FallbackPurposeFor(p.ID), p.Purpose)
}

func TestCreatePersonaValidation(t *testing.T) {
	svc, _ := newTestPersonaService(t)

	_, err := svc.Create(context.Background(), &models.CreatePersonaRequest{Personality: "warm"})
	assert.Error(t, err)

	_, err = svc.Create(context.Background(), &models.CreatePersonaRequest{Name: "Luna"})
	assert.Error(t, err)
}

func TestCreatePersonaPersists(t *testing.T) {
	svc, st := newTestPersonaService(t)

	p, err := svc.Create(context.Background(), &models.CreatePersonaRequest{
		Name: "Luna", Personality: "warm",
	})
	require.NoError(t, err)

	stored, err := st.LoadPersonas(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, p.ID, stored[0].ID)
}

func TestGetPersonaNotFound(t *testing.T) {
	svc, _ := newTestPersonaService(t)

	_, err := svc.Get("missing")

	assert.ErrorIs(t, err, ErrPersonaNotFound)
}

func TestUpdatePersonaKeepsIDAndCreatedAt(t *testing.T) {
	svc, _ := newTestPersonaService(t)

	created, err := svc.Create(context.Background(), &models.CreatePersonaRequest{
		Name: "Luna", Personality: "warm", Purpose: "study buddy",
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, &models.CreatePersonaRequest{
		Name: "Nova", Personality: "bold",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Nova", updated.Name)
	// Purpose was cleared, so the pool fallback applies again.
	assert.Equal(t, models.FallbackPurposeFor(created.ID), updated.Purpose)
}

func TestUpdatePersonaNotFound(t *testing.T) {
	svc, _ := newTestPersonaService(t)

	_, err := svc.Update(context.Background(), "missing", &models.CreatePersonaRequest{
		Name: "Nova", Personality: "bold",
	})

	assert.ErrorIs(t, err, ErrPersonaNotFound)
}

func TestDeletePersona(t *testing.T) {
	svc, _ := newTestPersonaService(t)

	created, err := svc.Create(context.Background(), &models.CreatePersonaRequest{
		Name: "Luna", Personality: "warm",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Empty(t, svc.List())
	assert.ErrorIs(t, svc.Delete(context.Background(), created.ID), ErrPersonaNotFound)
}

func TestListReturnsCopies(t *testing.T) {
	svc, _ := newTestPersonaService(t)

	_, err := svc.Create(context.Background(), &models.CreatePersonaRequest{
		Name: "Luna", Personality: "warm",
	})
	require.NoError(t, err)

	list := svc.List()
	list[0].Name = "mutated"

	assert.Equal(t, "Luna", svc.List()[0].Name)
}
