package ai

import (
	"context"
	"errors"
	"testing"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeClient struct {
	reply string
	err   error

	calls       int
	instruction string
	schema      *genai.Schema
	history     []Turn
	text        string
}

func (f *fakeClient) Complete(ctx context.Context, instruction string, schema *genai.Schema, history []Turn, text string) (string, error) {
	f.calls++
	f.instruction = instruction
	f.schema = schema
	f.history = history
	f.text = text
	return f.reply, f.err
}

func newTestGateway(client ChatClient) *Gateway {
	return NewGateway(client, logger.New(logger.Config{Level: "error"}))
}

func TestSendDecodesStructuredReply(t *testing.T) {
	client := &fakeClient{reply: `{"dialogue":"hello!","thought":"curious","action":"waves"}`}
	g := newTestGateway(client)

	msg, err := g.Send(context.Background(), testPersona(), models.ModeNormal, nil, "hi")

	require.NoError(t, err)
	assert.Equal(t, "hello!", msg.Text)
	assert.Equal(t, "curious", msg.Thought)
	assert.Equal(t, "waves", msg.Action)
	assert.Equal(t, models.RoleModel, msg.Role)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestSendMalformedReplyShownVerbatim(t *testing.T) {
	client := &fakeClient{reply: "sorry, I can't answer in JSON today"}
	g := newTestGateway(client)

	msg, err := g.Send(context.Background(), testPersona(), models.ModeNormal, nil, "hi")

	require.NoError(t, err)
	assert.Equal(t, "sorry, I can't answer in JSON today", msg.Text)
	assert.Empty(t, msg.Thought)
}

func TestSendEmptyReplyFallsBack(t *testing.T) {
	client := &fakeClient{reply: ""}
	g := newTestGateway(client)

	msg, err := g.Send(context.Background(), testPersona(), models.ModeNormal, nil, "hi")

	require.NoError(t, err)
	assert.Equal(t, "I'm not sure what to say.", msg.Text)
}

func TestSendEmptyDialoguePlaceholder(t *testing.T) {
	client := &fakeClient{reply: `{"dialogue":"","thought":"speechless"}`}
	g := newTestGateway(client)

	msg, err := g.Send(context.Background(), testPersona(), models.ModeNormal, nil, "hi")

	require.NoError(t, err)
	assert.Equal(t, "...", msg.Text)
	assert.Equal(t, "speechless", msg.Thought)
}

func TestSendTransportErrorSurfaces(t *testing.T) {
	transportErr := errors.New("connection reset")
	client := &fakeClient{err: transportErr}
	g := newTestGateway(client)

	_, err := g.Send(context.Background(), testPersona(), models.ModeNormal, nil, "hi")

	require.Error(t, err)
	assert.ErrorIs(t, err, transportErr)
}

func TestSendGameModePassesOptionsThrough(t *testing.T) {
	client := &fakeClient{reply: `{"dialogue":"pick one","user_response_options":["a","b","c"]}`}
	g := newTestGateway(client)

	msg, err := g.Send(context.Background(), testPersona(), models.ModeGame, nil, "hi")

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, msg.Options)
	require.NotNil(t, client.schema)
	assert.Contains(t, client.schema.Required, "user_response_options")
}

func TestSendSeedsHistory(t *testing.T) {
	client := &fakeClient{reply: `{"dialogue":"ok"}`}
	g := newTestGateway(client)

	history := []models.Message{
		{Role: models.RoleUser, Text: "first"},
		{Role: models.RoleModel, Text: "second"},
	}
	_, err := g.Send(context.Background(), testPersona(), models.ModeNormal, history, "third")

	require.NoError(t, err)
	require.Len(t, client.history, 2)
	assert.Equal(t, "first", client.history[0].Text)
	assert.Equal(t, "third", client.text)
}

func TestAnalyzeDecodesReport(t *testing.T) {
	client := &fakeClient{reply: `{"personality_traits":"open","communication_style":"direct","motivators":"learning","interests":["space"],"emotional_summary":"calm"}`}
	g := newTestGateway(client)

	report, err := g.Analyze(context.Background(), "User: hi\n")

	require.NoError(t, err)
	assert.Equal(t, "open", report.PersonalityTraits)
	assert.Equal(t, []string{"space"}, report.Interests)
}

func TestAnalyzeMalformedReplyIsAnError(t *testing.T) {
	client := &fakeClient{reply: "not json"}
	g := newTestGateway(client)

	_, err := g.Analyze(context.Background(), "User: hi\n")

	require.Error(t, err)
}

func TestGeneratePersonaDecodesDraft(t *testing.T) {
	client := &fakeClient{reply: `{"name":"Nova","personality":"bold","purpose":"adventure","gender":"female","language":"en-US"}`}
	g := newTestGateway(client)

	draft, err := g.GeneratePersona(context.Background(), []models.QuizAnswer{{Question: "q", Answer: "a"}})

	require.NoError(t, err)
	assert.Equal(t, "Nova", draft.Name)
	assert.Equal(t, models.GenderFemale, draft.Gender)
	assert.Empty(t, draft.ID)
}

func testPersona() *models.Persona {
	return &models.Persona{
		ID:          "p1",
		Name:        "Luna",
		Personality: "warm",
		Gender:      models.GenderFemale,
		Language:    "en-US",
	}
}
