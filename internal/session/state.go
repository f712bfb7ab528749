package session

import (
	"fmt"

	"chatbot-go/internal/model"
)

// Phase is the authentication state of a session.
type Phase int

const (
	Unauthenticated Phase = iota
	Authenticating
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	}
	return "unauthenticated"
}

// State is everything a session knows about the page it drives.
type State struct {
	Phase    Phase
	Identity *model.Identity
	History  model.ChatHistory
}

// SignedIn reports whether messages may be sent.
func (s State) SignedIn() bool {
	return s.Phase == Authenticated
}

// CommandKind names what a RenderCommand changes on the page.
type CommandKind string

const (
	CmdTurn     CommandKind = "turn"
	CmdLoading  CommandKind = "loading"
	CmdSignIn   CommandKind = "signIn"
	CmdInput    CommandKind = "input"
	CmdIdentity CommandKind = "identity"
)

// RenderCommand is one instruction for a Renderer.
// Turn is set for CmdTurn, Visible for CmdLoading and CmdSignIn,
// Enabled for CmdInput and Identity for CmdIdentity.
type RenderCommand struct {
	Kind     CommandKind
	Turn     model.ChatTurn
	Visible  bool
	Enabled  bool
	Identity *model.Identity
}

func showTurn(role model.Role, content string) RenderCommand {
	return RenderCommand{Kind: CmdTurn, Turn: model.ChatTurn{Role: role, Content: content}}
}

func notice(format string, args ...interface{}) RenderCommand {
	return showTurn(model.RoleSystem, fmt.Sprintf(format, args...))
}

// Event is an input to Apply.
type Event interface {
	event()
}

type (
	AuthCheckStarted struct{}
	// AuthChecked carries the identity found at startup; nil means nobody is signed in.
	AuthChecked     struct{ Identity *model.Identity }
	AuthCheckFailed struct{ Err error }
	SignInStarted   struct{}
	SignedIn        struct{ Identity *model.Identity }
	SignInFailed    struct{ Err error }
	// SignInCancelled is applied when the sign-in flow returned no identity.
	SignInCancelled   struct{}
	HistoryLoaded     struct{ History model.ChatHistory }
	HistoryLoadFailed struct{ Err error }
	SendRejected      struct{}
	MessageSubmitted  struct{ Text string }
	LoadingChanged    struct{ Visible bool }
	ReplyReceived     struct{ Text string }
	SendFailed        struct{ Err error }
)

func (AuthCheckStarted) event()  {}
func (AuthChecked) event()       {}
func (AuthCheckFailed) event()   {}
func (SignInStarted) event()     {}
func (SignedIn) event()          {}
func (SignInFailed) event()      {}
func (SignInCancelled) event()   {}
func (HistoryLoaded) event()     {}
func (HistoryLoadFailed) event() {}
func (SendRejected) event()      {}
func (MessageSubmitted) event()  {}
func (LoadingChanged) event()    {}
func (ReplyReceived) event()     {}
func (SendFailed) event()        {}

func signedInCommands(id *model.Identity) []RenderCommand {
	return []RenderCommand{
		{Kind: CmdSignIn, Visible: false},
		{Kind: CmdInput, Enabled: true},
		{Kind: CmdIdentity, Identity: id},
	}
}

func signedOutCommands() []RenderCommand {
	return []RenderCommand{
		{Kind: CmdSignIn, Visible: true},
		{Kind: CmdInput, Enabled: false},
	}
}

// Apply is the pure transition function of a session. It never mutates s.History
// in place, so a State handed out earlier keeps its contents.
func Apply(s State, ev Event) (State, []RenderCommand) {
	switch e := ev.(type) {
	case AuthCheckStarted:
		s.Phase = Authenticating
		return s, nil

	case AuthChecked:
		if e.Identity == nil {
			s.Phase = Unauthenticated
			s.Identity = nil
			return s, append(signedOutCommands(), notice("Please sign in to start chatting."))
		}
		s.Phase = Authenticated
		s.Identity = e.Identity
		return s, append(signedInCommands(e.Identity), notice("Signed in as %s", e.Identity.DisplayName()))

	case AuthCheckFailed:
		s.Phase = Unauthenticated
		return s, append(signedOutCommands(), notice("Auth check failed: %s. Click \"Sign In\".", describe(e.Err)))

	case SignInStarted:
		s.Phase = Authenticating
		return s, nil

	case SignedIn:
		s.Phase = Authenticated
		s.Identity = e.Identity
		return s, append(signedInCommands(e.Identity), notice("Signed in successfully!"))

	case SignInFailed:
		s.Phase = Unauthenticated
		return s, []RenderCommand{notice("Sign-in error: %s. Try again.", describe(e.Err))}

	case SignInCancelled:
		s.Phase = Unauthenticated
		return s, []RenderCommand{notice("Sign-in did not complete. Try again.")}

	case HistoryLoaded:
		s.History = e.History.Clone()
		cmds := make([]RenderCommand, 0, len(e.History))
		for _, t := range e.History {
			cmds = append(cmds, showTurn(t.Role, t.Content))
		}
		return s, cmds

	case HistoryLoadFailed:
		return s, []RenderCommand{notice("Error loading history: %s.", describe(e.Err))}

	case SendRejected:
		return s, []RenderCommand{notice("Please sign in first.")}

	case MessageSubmitted:
		s.History = s.History.Append(model.ChatTurn{Role: model.RoleUser, Content: e.Text})
		return s, []RenderCommand{showTurn(model.RoleUser, e.Text)}

	case LoadingChanged:
		return s, []RenderCommand{{Kind: CmdLoading, Visible: e.Visible}}

	case ReplyReceived:
		s.History = s.History.Append(model.ChatTurn{Role: model.RoleAssistant, Content: e.Text})
		return s, []RenderCommand{showTurn(model.RoleAssistant, e.Text)}

	case SendFailed:
		return s, []RenderCommand{notice("Error: %s", describe(e.Err))}
	}
	return s, nil
}
