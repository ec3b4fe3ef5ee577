package store

import (
	"context"
	"testing"
	"time"

	"ai-persona-chat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendMissingSlotReadsNil(t *testing.T) {
	b := NewMemoryBackend()

	data, err := b.Read(context.Background(), "nothing-here")

	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestMemoryBackendRoundTrip(t *testing.T) {
	b := NewMemoryBackend()

	require.NoError(t, b.Write(context.Background(), "slot", []byte("payload")))

	data, err := b.Read(context.Background(), "slot")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestLoadPersonasMissingSlotIsEmptyList(t *testing.T) {
	s := New(NewMemoryBackend())

	personas, err := s.LoadPersonas(context.Background())

	require.NoError(t, err)
	assert.Empty(t, personas)
}

func TestSaveAndLoadPersonas(t *testing.T) {
	s := New(NewMemoryBackend())
	personas := []models.Persona{
		{ID: "p1", Name: "Luna", Personality: "warm", CreatedAt: time.Now().UTC()},
		{ID: "p2", Name: "Rex", Personality: "gruff"},
	}

	require.NoError(t, s.SavePersonas(context.Background(), personas))

	got, err := s.LoadPersonas(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Luna", got[0].Name)
	assert.Equal(t, "p2", got[1].ID)
}

func TestSaveAndLoadConversations(t *testing.T) {
	s := New(NewMemoryBackend())
	conversations := map[string][]models.Message{
		"p1": {
			{ID: "m1", Role: models.RoleUser, Text: "hi"},
			{ID: "m2", Role: models.RoleModel, Text: "hello", Options: []string{"a", "b", "c"}},
		},
	}

	require.NoError(t, s.SaveConversations(context.Background(), conversations))

	got, err := s.LoadConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, got["p1"], 2)
	assert.Equal(t, []string{"a", "b", "c"}, got["p1"][1].Options)
}

func TestSaveRewritesSlotInFull(t *testing.T) {
	s := New(NewMemoryBackend())

	require.NoError(t, s.SavePersonas(context.Background(), []models.Persona{{ID: "p1"}, {ID: "p2"}}))
	require.NoError(t, s.SavePersonas(context.Background(), []models.Persona{{ID: "p3"}}))

	got, err := s.LoadPersonas(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p3", got[0].ID)
}
