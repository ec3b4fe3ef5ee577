package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/prompt"
	"ai-persona-chat/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu      sync.Mutex
	calls   int
	texts   []string
	err     error
	blockCh chan struct{}
}

func (f *fakeGateway) Send(ctx context.Context, persona *models.Persona, mode models.Mode, history []models.Message, text string) (models.Message, error) {
	f.mu.Lock()
	f.calls++
	f.texts = append(f.texts, text)
	blockCh := f.blockCh
	err := f.err
	f.mu.Unlock()

	if blockCh != nil {
		<-blockCh
	}
	if err != nil {
		return models.Message{}, err
	}
	return models.Message{ID: "reply", Role: models.RoleModel, Text: "hello", Timestamp: time.Now()}, nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeGateway) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.texts))
	copy(out, f.texts)
	return out
}

type fakePersonas struct{}

func (fakePersonas) Get(id string) (*models.Persona, error) {
	return &models.Persona{ID: id, Name: "Luna", Personality: "warm", Gender: models.GenderFemale}, nil
}

type fakeConv struct {
	mu       sync.Mutex
	messages map[string][]models.Message
	modes    map[string]models.Mode
}

func newFakeConv() *fakeConv {
	return &fakeConv{
		messages: make(map[string][]models.Message),
		modes:    make(map[string]models.Mode),
	}
}

func (f *fakeConv) History(personaID string) []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Message, len(f.messages[personaID]))
	copy(out, f.messages[personaID])
	return out
}

func (f *fakeConv) Append(ctx context.Context, personaID string, msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[personaID] = append(f.messages[personaID], msg)
	return nil
}

func (f *fakeConv) Mode(personaID string) models.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mode, ok := f.modes[personaID]; ok {
		return mode
	}
	return models.ModeNormal
}

func (f *fakeConv) setMode(personaID string, mode models.Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes[personaID] = mode
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []models.Message
}

func (f *fakeNotifier) MessageAppended(personaID string, msg models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newTestScheduler(gw *fakeGateway, conv *fakeConv, notifier Notifier) *Scheduler {
	return New(gw, fakePersonas{}, conv, notifier, Config{
		GreetingDelay: 30 * time.Millisecond,
		FollowUpDelay: 30 * time.Millisecond,
		CallTimeout:   time.Second,
	}, logger.New(logger.Config{Level: "error"}))
}

func TestActivateEmptyConversationSendsGreeting(t *testing.T) {
	gw := &fakeGateway{}
	conv := newFakeConv()
	notifier := &fakeNotifier{}
	s := newTestScheduler(gw, conv, notifier)

	s.Activate("p1")
	assert.Equal(t, StateAwaitingGreeting, s.State("p1"))

	require.Eventually(t, func() bool {
		return len(conv.History("p1")) == 1
	}, time.Second, 5*time.Millisecond)

	history := conv.History("p1")
	assert.Equal(t, models.RoleModel, history[0].Role)
	assert.Equal(t, prompt.GreetingPrompt, gw.sentTexts()[0])
	assert.GreaterOrEqual(t, notifier.count(), 1)
}

func TestActivateNonEmptyConversationSkipsGreeting(t *testing.T) {
	gw := &fakeGateway{}
	conv := newFakeConv()
	conv.Append(context.Background(), "p1", models.Message{Role: models.RoleUser, Text: "hi"})
	s := newTestScheduler(gw, conv, nil)

	s.Activate("p1")
	assert.Equal(t, StateIdle, s.State("p1"))

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, gw.callCount())
}

func TestSendCancelsPendingGreeting(t *testing.T) {
	gw := &fakeGateway{}
	conv := newFakeConv()
	s := newTestScheduler(gw, conv, nil)

	s.Activate("p1")
	_, err := s.Send(context.Background(), "p1", "hello there")
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)
	for _, text := range gw.sentTexts() {
		assert.NotEqual(t, prompt.GreetingPrompt, text)
	}
}

func TestGreetingChainsIntoFollowUp(t *testing.T) {
	gw := &fakeGateway{}
	conv := newFakeConv()
	s := newTestScheduler(gw, conv, nil)

	s.Activate("p1")

	require.Eventually(t, func() bool {
		texts := gw.sentTexts()
		return len(texts) == 2 && texts[1] == prompt.FollowUpPrompt
	}, time.Second, 5*time.Millisecond)
}

func TestFollowUpFiresAtMostOncePerIdlePeriod(t *testing.T) {
	gw := &fakeGateway{}
	conv := newFakeConv()
	s := newTestScheduler(gw, conv, nil)

	_, err := s.Send(context.Background(), "p1", "hi")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return gw.callCount() == 2
	}, time.Second, 5*time.Millisecond)

	// No chaining: the one follow-up is the last proactive call.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, gw.callCount())
	assert.Equal(t, StateIdle, s.State("p1"))
}

func TestSendResetsFollowUpGuard(t *testing.T) {
	gw := &fakeGateway{}
	conv := newFakeConv()
	s := newTestScheduler(gw, conv, nil)

	_, err := s.Send(context.Background(), "p1", "first")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return gw.callCount() == 2 }, time.Second, 5*time.Millisecond)

	_, err = s.Send(context.Background(), "p1", "second")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return gw.callCount() == 4 }, time.Second, 5*time.Millisecond)

	texts := gw.sentTexts()
	assert.Equal(t, prompt.FollowUpPrompt, texts[1])
	assert.Equal(t, prompt.FollowUpPrompt, texts[3])
}

func TestGameModeSkipsFollowUp(t *testing.T) {
	gw := &fakeGateway{}
	conv := newFakeConv()
	conv.setMode("p1", models.ModeGame)
	s := newTestScheduler(gw, conv, nil)

	_, err := s.Send(context.Background(), "p1", "hi")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State("p1"))

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, gw.callCount())
}

func TestSendWhileBusyIsRejected(t *testing.T) {
	gw := &fakeGateway{blockCh: make(chan struct{})}
	conv := newFakeConv()
	s := newTestScheduler(gw, conv, nil)

	done := make(chan struct{})
	go func() {
		s.Send(context.Background(), "p1", "slow one")
		close(done)
	}()

	require.Eventually(t, func() bool {
		return s.State("p1") == StateBusy
	}, time.Second, time.Millisecond)

	_, err := s.Send(context.Background(), "p1", "too soon")
	assert.ErrorIs(t, err, ErrBusy)

	close(gw.blockCh)
	<-done
}

func TestSendTransportErrorAppendsErrorMessage(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection reset")}
	conv := newFakeConv()
	notifier := &fakeNotifier{}
	s := newTestScheduler(gw, conv, notifier)

	_, err := s.Send(context.Background(), "p1", "hi")
	require.Error(t, err)

	history := conv.History("p1")
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, models.RoleModel, history[1].Role)
	assert.Equal(t, transportErrorText, history[1].Text)
	assert.Equal(t, StateIdle, s.State("p1"))

	// No retry: the error was reported once.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, gw.callCount())
}

func TestDeactivateCancelsGreeting(t *testing.T) {
	gw := &fakeGateway{}
	conv := newFakeConv()
	s := newTestScheduler(gw, conv, nil)

	s.Activate("p1")
	s.Deactivate("p1")
	s.Deactivate("p1") // idempotent

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, gw.callCount())
	assert.Equal(t, StateIdle, s.State("p1"))
}

func TestActivateSwitchCancelsPreviousTimers(t *testing.T) {
	gw := &fakeGateway{}
	conv := newFakeConv()
	conv.Append(context.Background(), "p2", models.Message{Role: models.RoleUser, Text: "hi"})
	s := newTestScheduler(gw, conv, nil)

	s.Activate("p1")
	s.Activate("p2")

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, gw.callCount())
	assert.Equal(t, StateIdle, s.State("p1"))
}
