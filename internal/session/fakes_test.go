package session

import (
	"context"
	"sync"

	"chatbot-go/internal/model"
	"chatbot-go/pkg/llm"
)

type fakeAuth struct {
	current    *model.Identity
	currentErr error
	signIn     *model.Identity
	signInErr  error

	mu          sync.Mutex
	signInCalls int
}

func (a *fakeAuth) CurrentIdentity(ctx context.Context) (*model.Identity, error) {
	return a.current, a.currentErr
}

func (a *fakeAuth) SignIn(ctx context.Context, creds model.Credentials) (*model.Identity, error) {
	a.mu.Lock()
	a.signInCalls++
	a.mu.Unlock()
	return a.signIn, a.signInErr
}

// fakeInference replies with "echo: <prompt>" unless reply or err is set.
type fakeInference struct {
	mu      sync.Mutex
	prompts []string
	opts    []llm.ChatOptions
	resp    *llm.ChatResponse
	err     error
	// gate, when set, is received from before answering.
	gate chan struct{}
	// started, when set, is sent the prompt as soon as a call begins.
	started chan string
}

func (f *fakeInference) Chat(ctx context.Context, prompt string, opts llm.ChatOptions) (*llm.ChatResponse, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- prompt
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	text := "echo: " + prompt
	return &llm.ChatResponse{Message: &llm.ResponseMessage{Role: "assistant", Content: llm.TextContent(text)}}, nil
}

func (f *fakeInference) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeHistory struct {
	mu      sync.Mutex
	stored  model.ChatHistory
	found   bool
	loadErr error
	saveErr error
	saves   int
}

func (h *fakeHistory) Load(ctx context.Context) (model.ChatHistory, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loadErr != nil {
		return nil, false, h.loadErr
	}
	return h.stored.Clone(), h.found, nil
}

func (h *fakeHistory) Save(ctx context.Context, history model.ChatHistory) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saves++
	if h.saveErr != nil {
		return h.saveErr
	}
	h.stored = history.Clone()
	h.found = true
	return nil
}

func (h *fakeHistory) saveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.saves
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.TurnEvent
	err    error
	// entered, when set, is sent the session id as soon as a publish begins.
	entered chan string
	// release, when set, is received from before the publish returns.
	release chan struct{}
}

func (p *fakePublisher) PublishTurn(ctx context.Context, ev model.TurnEvent) error {
	if p.entered != nil {
		p.entered <- ev.SessionID
	}
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// recorder is a Renderer that keeps every command.
type recorder struct {
	mu   sync.Mutex
	cmds []RenderCommand
}

func (r *recorder) Render(cmd RenderCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
}

func (r *recorder) all() []RenderCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RenderCommand(nil), r.cmds...)
}

func (r *recorder) turns() []model.ChatTurn {
	var out []model.ChatTurn
	for _, c := range r.all() {
		if c.Kind == CmdTurn {
			out = append(out, c.Turn)
		}
	}
	return out
}

func (r *recorder) turnsWithRole(role model.Role) []model.ChatTurn {
	var out []model.ChatTurn
	for _, t := range r.turns() {
		if t.Role == role {
			out = append(out, t)
		}
	}
	return out
}

func (r *recorder) loading() []bool {
	var out []bool
	for _, c := range r.all() {
		if c.Kind == CmdLoading {
			out = append(out, c.Visible)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = nil
}
