package service

import (
	"context"
	"testing"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConversationService(t *testing.T) (*ConversationService, *store.Store) {
	t.Helper()
	st := store.New(store.NewMemoryBackend())
	svc, err := NewConversationService(context.Background(), st)
	require.NoError(t, err)
	return svc, st
}

func TestAppendPreservesOrder(t *testing.T) {
	svc, _ := newTestConversationService(t)

	require.NoError(t, svc.Append(context.Background(), "p1", models.Message{ID: "m1", Role: models.RoleUser, Text: "hi"}))
	require.NoError(t, svc.Append(context.Background(), "p1", models.Message{ID: "m2", Role: models.RoleModel, Text: "hello"}))

	history := svc.History("p1")
	require.Len(t, history, 2)
	assert.Equal(t, "m1", history[0].ID)
	assert.Equal(t, "m2", history[1].ID)
}

func TestAppendRewritesStoredSlot(t *testing.T) {
	svc, st := newTestConversationService(t)

	require.NoError(t, svc.Append(context.Background(), "p1", models.Message{ID: "m1", Role: models.RoleUser, Text: "hi"}))

	stored, err := st.LoadConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, stored["p1"], 1)
	assert.Equal(t, "hi", stored["p1"][0].Text)
}

func TestHistoryReturnsCopies(t *testing.T) {
	svc, _ := newTestConversationService(t)

	require.NoError(t, svc.Append(context.Background(), "p1", models.Message{ID: "m1", Role: models.RoleUser, Text: "hi"}))

	history := svc.History("p1")
	history[0].Text = "mutated"

	assert.Equal(t, "hi", svc.History("p1")[0].Text)
}

func TestModeDefaultsToNormal(t *testing.T) {
	svc, _ := newTestConversationService(t)

	assert.Equal(t, models.ModeNormal, svc.Mode("p1"))

	svc.SetMode("p1", models.ModeGame)
	assert.Equal(t, models.ModeGame, svc.Mode("p1"))
}

func TestDeleteClearsHistoryAndMode(t *testing.T) {
	svc, _ := newTestConversationService(t)

	require.NoError(t, svc.Append(context.Background(), "p1", models.Message{ID: "m1", Role: models.RoleUser, Text: "hi"}))
	svc.SetMode("p1", models.ModeGame)

	require.NoError(t, svc.Delete(context.Background(), "p1"))

	assert.Empty(t, svc.History("p1"))
	assert.Equal(t, models.ModeNormal, svc.Mode("p1"))
}

func TestDeleteMissingConversationIsNoOp(t *testing.T) {
	svc, _ := newTestConversationService(t)

	assert.NoError(t, svc.Delete(context.Background(), "nothing"))
}

func TestUserTurnsCountsOnlyUserMessages(t *testing.T) {
	svc, _ := newTestConversationService(t)

	require.NoError(t, svc.Append(context.Background(), "p1", models.Message{ID: "m1", Role: models.RoleUser, Text: "a"}))
	require.NoError(t, svc.Append(context.Background(), "p1", models.Message{ID: "m2", Role: models.RoleModel, Text: "b"}))
	require.NoError(t, svc.Append(context.Background(), "p1", models.Message{ID: "m3", Role: models.RoleUser, Text: "c"}))

	assert.Equal(t, 2, svc.UserTurns("p1"))
	assert.Equal(t, 0, svc.UserTurns("p2"))
}
