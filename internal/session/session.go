// Package session implements the chat session orchestrator: it checks who is
// signed in, replays the stored conversation and runs each message round-trip
// against the inference and persistence collaborators.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"chatbot-go/internal/model"
	"chatbot-go/pkg/llm"
	"chatbot-go/pkg/log"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Authenticator resolves the current identity and runs the interactive sign-in.
// Both return a nil identity without error when nobody is signed in.
type Authenticator interface {
	CurrentIdentity(ctx context.Context) (*model.Identity, error)
	SignIn(ctx context.Context, creds model.Credentials) (*model.Identity, error)
}

// Inference answers a prompt.
type Inference interface {
	Chat(ctx context.Context, prompt string, opts llm.ChatOptions) (*llm.ChatResponse, error)
}

// HistoryStore reads and overwrites the persisted conversation.
type HistoryStore interface {
	Load(ctx context.Context) (history model.ChatHistory, found bool, err error)
	Save(ctx context.Context, history model.ChatHistory) error
}

// TurnPublisher receives each persisted user/assistant exchange.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, ev model.TurnEvent) error
}

// Renderer applies render commands to a page. Calls are never concurrent.
type Renderer interface {
	Render(cmd RenderCommand)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(cmd RenderCommand)

func (f RendererFunc) Render(cmd RenderCommand) { f(cmd) }

const publishTimeout = 5 * time.Second

// Options configures the inference call and optional publishing.
type Options struct {
	Model     string
	TestMode  bool
	Publisher TurnPublisher
}

// Session owns one conversation view. It is safe for concurrent use; sends are
// serialized so every persisted write includes all earlier replies.
type Session struct {
	id        string
	auth      Authenticator
	inference Inference
	history   HistoryStore
	renderer  Renderer
	opts      Options

	sendSlot *semaphore.Weighted

	mu    sync.Mutex
	state State
}

// New creates a session in the Unauthenticated phase with an empty history.
func New(auth Authenticator, inference Inference, history HistoryStore, renderer Renderer, opts Options) *Session {
	return &Session{
		id:        uuid.NewString(),
		auth:      auth,
		inference: inference,
		history:   history,
		renderer:  renderer,
		opts:      opts,
		sendSlot:  semaphore.NewWeighted(1),
		state:     State{Phase: Unauthenticated, History: model.ChatHistory{}},
	}
}

// ID identifies the session in logs and published events.
func (s *Session) ID() string {
	return s.id
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.History = s.state.History.Clone()
	return st
}

func (s *Session) dispatch(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(ev)
}

func (s *Session) apply(ev Event) {
	var cmds []RenderCommand
	s.state, cmds = Apply(s.state, ev)
	for _, cmd := range cmds {
		s.renderer.Render(cmd)
	}
}

func (s *Session) fail(err *Error) {
	log.Errorw("session collaborator call failed",
		"session", s.id,
		"op", err.Op,
		"kind", err.Kind.String(),
		"error", err.Err,
	)
}

// CheckAuthentication asks the auth collaborator who is signed in and, when
// someone is, hydrates the history. Errors are rendered and returned.
func (s *Session) CheckAuthentication(ctx context.Context) error {
	s.dispatch(AuthCheckStarted{})

	id, err := s.auth.CurrentIdentity(ctx)
	if err != nil {
		serr := wrap(KindAuth, "checkAuthentication", err)
		s.fail(serr)
		s.dispatch(AuthCheckFailed{Err: serr})
		return serr
	}
	s.dispatch(AuthChecked{Identity: id})
	if id == nil {
		return nil
	}
	log.Infow("session authenticated", "session", s.id, "user", id.Username)
	return s.HydrateHistory(ctx)
}

// SignIn runs the interactive sign-in flow. It is a no-op unless the session is
// Unauthenticated, so a failed attempt can simply be retried.
func (s *Session) SignIn(ctx context.Context, creds model.Credentials) error {
	s.mu.Lock()
	if s.state.Phase != Unauthenticated {
		s.mu.Unlock()
		return nil
	}
	s.apply(SignInStarted{})
	s.mu.Unlock()

	id, err := s.auth.SignIn(ctx, creds)
	if err != nil {
		serr := wrap(KindAuth, "signIn", err)
		s.fail(serr)
		s.dispatch(SignInFailed{Err: serr})
		return serr
	}
	if id == nil {
		s.dispatch(SignInCancelled{})
		return nil
	}
	s.dispatch(SignedIn{Identity: id})
	log.Infow("session signed in", "session", s.id, "user", id.Username)
	return s.HydrateHistory(ctx)
}

// HydrateHistory loads the stored conversation and replays it. On failure the
// in-memory history is left untouched.
func (s *Session) HydrateHistory(ctx context.Context) error {
	h, found, err := s.history.Load(ctx)
	if err != nil {
		serr := wrap(KindStore, "hydrateHistory", err)
		s.fail(serr)
		s.dispatch(HistoryLoadFailed{Err: serr})
		return serr
	}
	if !found {
		return nil
	}
	s.dispatch(HistoryLoaded{History: h})
	return nil
}

// SendMessage submits text. Blank text is ignored and a signed-out session only
// gets a notice; neither touches the history or any collaborator.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if !s.State().SignedIn() {
		s.dispatch(SendRejected{})
		return ErrNotSignedIn
	}

	ev, err := s.exchange(ctx, text)
	if err != nil {
		return err
	}
	if ev != nil {
		s.publish(ctx, *ev)
	}
	return nil
}

// exchange runs one round-trip while holding the send slot. Loading is visible
// only for its duration.
func (s *Session) exchange(ctx context.Context, text string) (*model.TurnEvent, error) {
	if err := s.sendSlot.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sendSlot.Release(1)

	s.dispatch(MessageSubmitted{Text: text})
	s.dispatch(LoadingChanged{Visible: true})
	defer s.dispatch(LoadingChanged{Visible: false})

	ev, serr := s.roundTrip(ctx, text)
	if serr != nil {
		s.fail(serr)
		s.dispatch(SendFailed{Err: serr})
		return nil, serr
	}
	return ev, nil
}

// roundTrip returns the event to publish, or nil when no publisher is set.
func (s *Session) roundTrip(ctx context.Context, text string) (*model.TurnEvent, *Error) {
	resp, err := s.inference.Chat(ctx, text, llm.ChatOptions{Model: s.opts.Model, TestMode: s.opts.TestMode})
	if err != nil {
		return nil, wrap(KindInference, "sendMessage", err)
	}
	reply := ExtractReply(resp)
	s.dispatch(ReplyReceived{Text: reply})

	st := s.State()
	if err := s.history.Save(ctx, st.History); err != nil {
		return nil, wrap(KindStore, "sendMessage", err)
	}

	if s.opts.Publisher == nil {
		return nil, nil
	}
	ev := &model.TurnEvent{
		SessionID: s.id,
		Turns: []model.ChatTurn{
			{Role: model.RoleUser, Content: text},
			{Role: model.RoleAssistant, Content: reply},
		},
		At: time.Now(),
	}
	if st.Identity != nil {
		ev.Username = st.Identity.Username
	}
	return ev, nil
}

// publish runs after the send slot is released; failures are only logged.
func (s *Session) publish(ctx context.Context, ev model.TurnEvent) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.opts.Publisher.PublishTurn(ctx, ev); err != nil {
		log.Warnw("failed to publish turn event", "session", s.id, "error", err)
	}
}
