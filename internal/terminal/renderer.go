// Package terminal renders chat session commands as styled lines on a terminal.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"chatbot-go/internal/model"
	"chatbot-go/internal/session"

	"github.com/charmbracelet/lipgloss"
)

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	contentStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	identityStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)
)

// SignInHint is printed when the sign-in control becomes visible.
const SignInHint = "Type /signin to sign in."

// Renderer writes one block per turn and short status lines for everything else.
type Renderer struct {
	mu  sync.Mutex
	out io.Writer
	// inputEnabled mirrors the last input command so the prompt can be hidden.
	inputEnabled bool
}

// NewRenderer creates a Renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// InputEnabled reports whether the session currently accepts messages.
func (r *Renderer) InputEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputEnabled
}

func (r *Renderer) Render(cmd session.RenderCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch cmd.Kind {
	case session.CmdTurn:
		r.turn(cmd.Turn)
	case session.CmdLoading:
		if cmd.Visible {
			fmt.Fprintln(r.out, systemStyle.Render("thinking..."))
		}
	case session.CmdSignIn:
		if cmd.Visible {
			fmt.Fprintln(r.out, systemStyle.Render(SignInHint))
		}
	case session.CmdInput:
		r.inputEnabled = cmd.Enabled
	case session.CmdIdentity:
		fmt.Fprintln(r.out, identityStyle.Render("● "+cmd.Identity.DisplayName()))
	}
}

func (r *Renderer) turn(t model.ChatTurn) {
	switch t.Role {
	case model.RoleUser:
		fmt.Fprintln(r.out, userStyle.Render("You"))
	case model.RoleAssistant:
		fmt.Fprintln(r.out, assistantStyle.Render("Assistant"))
	default:
		fmt.Fprintln(r.out, systemStyle.Render(t.Content))
		return
	}
	fmt.Fprintln(r.out, contentStyle.Render(strings.TrimRight(t.Content, "\n")))
}
