// Package scheduler drives proactive engagement for the active persona: a
// greeting when a freshly selected persona has no history yet, and a single
// follow-up when the user goes quiet after a reply. Timers are owned here
// and cancellation is a first-class operation: every user action and every
// persona switch cancels outstanding timers before anything else happens.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/prompt"
	"ai-persona-chat/backend/pkg/logger"
	"ai-persona-chat/backend/shared/observability"

	"github.com/google/uuid"
)

// State is the engagement state of one persona's conversation.
type State int

const (
	StateIdle State = iota
	StateAwaitingGreeting
	StateAwaitingFollowUp
	StateBusy
)

// ErrBusy rejects a send while a model call is already in flight for the
// persona. At most one call per conversation is ever outstanding.
var ErrBusy = errors.New("a reply is already in flight for this persona")

// transportErrorText is the user-visible message inserted when the model
// call itself fails. The failure is reported once and never retried.
const transportErrorText = "Something went wrong while replying. Please try again."

// Gateway is the model boundary the scheduler drives.
type Gateway interface {
	Send(ctx context.Context, persona *models.Persona, mode models.Mode, history []models.Message, text string) (models.Message, error)
}

// PersonaSource resolves persona ids.
type PersonaSource interface {
	Get(id string) (*models.Persona, error)
}

// Conversations is the history surface the scheduler reads and appends to.
type Conversations interface {
	History(personaID string) []models.Message
	Append(ctx context.Context, personaID string, msg models.Message) error
	Mode(personaID string) models.Mode
}

// Notifier receives every appended message so connected clients see
// proactive turns without polling.
type Notifier interface {
	MessageAppended(personaID string, msg models.Message)
}

// Config holds the engagement delays.
type Config struct {
	GreetingDelay time.Duration
	FollowUpDelay time.Duration
	// CallTimeout bounds the model calls made from timer callbacks, which
	// have no request context of their own.
	CallTimeout time.Duration
}

// DefaultConfig returns the stock delays.
func DefaultConfig() Config {
	return Config{
		GreetingDelay: 10 * time.Second,
		FollowUpDelay: 15 * time.Second,
		CallTimeout:   60 * time.Second,
	}
}

type session struct {
	state         State
	greetingTimer *time.Timer
	followUpTimer *time.Timer
	followUpSent  bool
}

// Scheduler owns one session per persona.
type Scheduler struct {
	gateway  Gateway
	personas PersonaSource
	conv     Conversations
	notifier Notifier
	cfg      Config
	log      *logger.Logger

	mu       sync.Mutex
	sessions map[string]*session
	active   string
}

// New creates a scheduler. The notifier may be nil.
func New(gateway Gateway, personas PersonaSource, conv Conversations, notifier Notifier, cfg Config, log *logger.Logger) *Scheduler {
	if cfg.GreetingDelay <= 0 {
		cfg.GreetingDelay = DefaultConfig().GreetingDelay
	}
	if cfg.FollowUpDelay <= 0 {
		cfg.FollowUpDelay = DefaultConfig().FollowUpDelay
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultConfig().CallTimeout
	}
	return &Scheduler{
		gateway:  gateway,
		personas: personas,
		conv:     conv,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*session),
	}
}

// Activate marks a persona as the one the user is looking at. Timers for
// the previously active persona are cancelled unconditionally; a greeting
// timer is armed only when the selected persona has no history yet.
func (s *Scheduler) Activate(personaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != "" && s.active != personaID {
		if prev, ok := s.sessions[s.active]; ok {
			s.cancelTimersLocked(prev)
			if prev.state != StateBusy {
				prev.state = StateIdle
			}
		}
	}
	s.active = personaID

	sess := s.sessionLocked(personaID)
	if sess.state == StateBusy {
		return
	}
	s.cancelTimersLocked(sess)

	if len(s.conv.History(personaID)) == 0 {
		sess.state = StateAwaitingGreeting
		s.armGreetingLocked(personaID, sess)
	} else {
		sess.state = StateIdle
	}
}

// Deactivate cancels everything pending for a persona, used when the
// conversation view is torn down or the persona is deleted. Idempotent.
func (s *Scheduler) Deactivate(personaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[personaID]
	if !ok {
		return
	}
	s.cancelTimersLocked(sess)
	if sess.state != StateBusy {
		sess.state = StateIdle
	}
	if s.active == personaID {
		s.active = ""
	}
}

// Send submits one user turn. It cancels outstanding timers, resets the
// follow-up guard, issues the model call and re-arms the inactivity timer
// in normal mode. A transport failure appends a single user-visible error
// message and is returned to the caller.
func (s *Scheduler) Send(ctx context.Context, personaID, text string) (models.Message, error) {
	s.mu.Lock()
	sess := s.sessionLocked(personaID)
	if sess.state == StateBusy {
		s.mu.Unlock()
		return models.Message{}, ErrBusy
	}
	s.cancelTimersLocked(sess)
	sess.followUpSent = false
	sess.state = StateBusy
	s.mu.Unlock()

	persona, err := s.personas.Get(personaID)
	if err != nil {
		s.setState(personaID, StateIdle)
		return models.Message{}, err
	}

	mode := s.conv.Mode(personaID)
	history := s.conv.History(personaID)

	userMsg := models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Text:      text,
		Timestamp: time.Now(),
	}
	if err := s.conv.Append(ctx, personaID, userMsg); err != nil {
		s.setState(personaID, StateIdle)
		return models.Message{}, err
	}

	reply, err := s.gateway.Send(ctx, persona, mode, history, text)
	if err != nil {
		s.appendErrorMessage(ctx, personaID)
		s.setState(personaID, StateIdle)
		return models.Message{}, err
	}

	if err := s.conv.Append(ctx, personaID, reply); err != nil {
		s.setState(personaID, StateIdle)
		return models.Message{}, err
	}
	s.notify(personaID, reply)

	s.mu.Lock()
	if mode == models.ModeNormal {
		sess.state = StateAwaitingFollowUp
		s.armFollowUpLocked(personaID, sess)
	} else {
		sess.state = StateIdle
	}
	s.mu.Unlock()

	return reply, nil
}

// State reports a persona's current engagement state.
func (s *Scheduler) State(personaID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[personaID]; ok {
		return sess.state
	}
	return StateIdle
}

// greetingFired runs when the greeting timer expires.
func (s *Scheduler) greetingFired(personaID string) {
	s.mu.Lock()
	sess, ok := s.sessions[personaID]
	if !ok || sess.state != StateAwaitingGreeting {
		s.mu.Unlock()
		return
	}
	sess.greetingTimer = nil
	sess.state = StateBusy
	s.mu.Unlock()

	observability.TimersFired.Add(context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CallTimeout)
	defer cancel()

	persona, err := s.personas.Get(personaID)
	if err != nil {
		s.log.LogError(err, "greeting skipped: persona lookup failed", "persona_id", personaID)
		s.setState(personaID, StateIdle)
		return
	}

	mode := s.conv.Mode(personaID)
	reply, err := s.gateway.Send(ctx, persona, mode, nil, prompt.GreetingPrompt)
	if err != nil {
		s.log.LogError(err, "proactive greeting failed", "persona_id", personaID)
		s.setState(personaID, StateIdle)
		return
	}

	if err := s.conv.Append(ctx, personaID, reply); err != nil {
		s.log.LogError(err, "persisting greeting failed", "persona_id", personaID)
		s.setState(personaID, StateIdle)
		return
	}
	s.notify(personaID, reply)

	s.mu.Lock()
	if mode == models.ModeNormal {
		sess.state = StateAwaitingFollowUp
		s.armFollowUpLocked(personaID, sess)
	} else {
		// Game mode: the user is choosing among suggested options,
		// no follow-up nagging.
		sess.state = StateIdle
	}
	s.mu.Unlock()
}

// followUpFired runs when the inactivity timer expires.
func (s *Scheduler) followUpFired(personaID string) {
	s.mu.Lock()
	sess, ok := s.sessions[personaID]
	if !ok || sess.state != StateAwaitingFollowUp {
		s.mu.Unlock()
		return
	}
	if sess.followUpSent {
		sess.followUpTimer = nil
		sess.state = StateIdle
		s.mu.Unlock()
		return
	}
	sess.followUpSent = true
	sess.followUpTimer = nil
	sess.state = StateBusy
	s.mu.Unlock()

	// The mode can flip to game while the timer is pending; follow-ups are
	// a normal-mode behavior only.
	mode := s.conv.Mode(personaID)
	if mode != models.ModeNormal {
		s.setState(personaID, StateIdle)
		return
	}

	observability.TimersFired.Add(context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CallTimeout)
	defer cancel()

	persona, err := s.personas.Get(personaID)
	if err != nil {
		s.log.LogError(err, "follow-up skipped: persona lookup failed", "persona_id", personaID)
		s.setState(personaID, StateIdle)
		return
	}

	reply, err := s.gateway.Send(ctx, persona, mode, s.conv.History(personaID), prompt.FollowUpPrompt)
	if err != nil {
		s.log.LogError(err, "inactivity follow-up failed", "persona_id", personaID)
		s.setState(personaID, StateIdle)
		return
	}

	if err := s.conv.Append(ctx, personaID, reply); err != nil {
		s.log.LogError(err, "persisting follow-up failed", "persona_id", personaID)
		s.setState(personaID, StateIdle)
		return
	}
	s.notify(personaID, reply)

	// One follow-up per idle period, no auto-chaining.
	s.setState(personaID, StateIdle)
}

func (s *Scheduler) sessionLocked(personaID string) *session {
	sess, ok := s.sessions[personaID]
	if !ok {
		sess = &session{state: StateIdle}
		s.sessions[personaID] = sess
	}
	return sess
}

// armGreetingLocked arms the greeting timer, clearing any existing instance
// first so at most one is ever outstanding.
func (s *Scheduler) armGreetingLocked(personaID string, sess *session) {
	if sess.greetingTimer != nil {
		sess.greetingTimer.Stop()
	}
	sess.greetingTimer = time.AfterFunc(s.cfg.GreetingDelay, func() {
		s.greetingFired(personaID)
	})
	observability.TimersArmed.Add(context.Background(), 1)
}

// armFollowUpLocked arms the inactivity timer, clearing any existing
// instance first.
func (s *Scheduler) armFollowUpLocked(personaID string, sess *session) {
	if sess.followUpTimer != nil {
		sess.followUpTimer.Stop()
	}
	sess.followUpTimer = time.AfterFunc(s.cfg.FollowUpDelay, func() {
		s.followUpFired(personaID)
	})
	observability.TimersArmed.Add(context.Background(), 1)
}

func (s *Scheduler) cancelTimersLocked(sess *session) {
	if sess.greetingTimer != nil {
		sess.greetingTimer.Stop()
		sess.greetingTimer = nil
		observability.TimersCancelled.Add(context.Background(), 1)
	}
	if sess.followUpTimer != nil {
		sess.followUpTimer.Stop()
		sess.followUpTimer = nil
		observability.TimersCancelled.Add(context.Background(), 1)
	}
	if sess.state == StateAwaitingGreeting || sess.state == StateAwaitingFollowUp {
		sess.state = StateIdle
	}
}

func (s *Scheduler) setState(personaID string, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[personaID]; ok {
		sess.state = state
	}
}

func (s *Scheduler) appendErrorMessage(ctx context.Context, personaID string) {
	errMsg := models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleModel,
		Text:      transportErrorText,
		Timestamp: time.Now(),
	}
	if err := s.conv.Append(ctx, personaID, errMsg); err != nil {
		s.log.LogError(err, "persisting error message failed", "persona_id", personaID)
		return
	}
	s.notify(personaID, errMsg)
}

func (s *Scheduler) notify(personaID string, msg models.Message) {
	if s.notifier != nil {
		s.notifier.MessageAppended(personaID, msg)
	}
}
