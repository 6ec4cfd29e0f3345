package terminal

import (
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"auth-client/internal/bootstrap"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F43F5E")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	routeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Underline(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Renderer writes messages and navigation targets to out. It is safe for
// use from the MessageBox timer goroutine.
type Renderer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Message renders m. The empty message is drawn as a faint marker so the
// expiry stays visible in a scrolling terminal.
func (r *Renderer) Message(m bootstrap.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case m.Text == "":
		fmt.Fprintln(r.out, dimStyle.Render("(message cleared)"))
	case m.IsError:
		fmt.Fprintln(r.out, errorStyle.Render("✗ "+m.Text))
	default:
		fmt.Fprintln(r.out, successStyle.Render("✓ "+m.Text))
	}
}

// Printf writes an unstyled line.
func (r *Renderer) Printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Navigator reports navigation by printing the absolute target URL.
type Navigator struct {
	base     *url.URL
	renderer *Renderer

	mu   sync.Mutex
	last string
}

var _ bootstrap.Navigator = (*Navigator)(nil)

func NewNavigator(base *url.URL, r *Renderer) *Navigator {
	return &Navigator{base: base, renderer: r}
}

func (n *Navigator) Navigate(route string) {
	target := n.base.JoinPath(route).String()

	n.mu.Lock()
	n.last = route
	n.mu.Unlock()

	n.renderer.mu.Lock()
	defer n.renderer.mu.Unlock()
	fmt.Fprintln(n.renderer.out, "→ "+routeStyle.Render(target))
}

// Last is the most recent route, or "".
func (n *Navigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}
