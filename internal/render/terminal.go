package render

import (
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// TerminalRenderer renders markdown to ANSI text with glamour.
//
// All input is stripped of escape and control sequences first, so streamed
// content cannot move the cursor, retitle the window or hide text.
type TerminalRenderer struct {
	mu   sync.RWMutex
	opts Options
}

// NewTerminalRenderer creates a renderer with the given options
func NewTerminalRenderer(opts Options) *TerminalRenderer {
	return &TerminalRenderer{opts: opts}
}

// Options returns the current options
func (r *TerminalRenderer) Options() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// SetWidth changes the wrap width used by subsequent renders
func (r *TerminalRenderer) SetWidth(width int) {
	if width <= 0 {
		return
	}
	r.mu.Lock()
	r.opts.Width = width
	r.mu.Unlock()
}

// Render implements Renderer. On glamour failure the sanitized source text is
// returned unformatted.
func (r *TerminalRenderer) Render(raw string) Markup {
	clean := StripTerminal(raw)
	opts := r.Options()

	tr, err := globalPool.get(opts)
	if err != nil {
		return Markup{format: FormatANSI, body: clean}
	}
	defer globalPool.put(opts, tr)

	out, err := tr.Render(clean)
	if err != nil {
		return Markup{format: FormatANSI, body: clean}
	}
	return Markup{format: FormatANSI, body: out}
}

// Literal implements Renderer
func (r *TerminalRenderer) Literal(text string) Markup {
	return Markup{format: FormatANSI, body: StripTerminal(text)}
}

// StripTerminal removes ANSI escape sequences and control characters other
// than newline and tab.
func StripTerminal(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r == '\r' {
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
