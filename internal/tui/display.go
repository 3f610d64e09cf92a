package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/agentchat/internal/models"
	"github.com/diogo/agentchat/internal/render"
	"github.com/diogo/agentchat/internal/session"
)

// ToastDuration is how long a notification stays visible
const ToastDuration = 3 * time.Second

type slot struct {
	role    models.Role
	content render.Markup
}

// Display is the message list drawn in the viewport. It implements
// stream.Sink.
type Display struct {
	slots []slot
}

// NewSlot implements stream.Sink
func (d *Display) NewSlot(role models.Role) int {
	d.slots = append(d.slots, slot{role: role})
	return len(d.slots) - 1
}

// ReplaceSlot implements stream.Sink
func (d *Display) ReplaceSlot(i int, m render.Markup) {
	if i < 0 || i >= len(d.slots) {
		return
	}
	d.slots[i].content = m
}

// Reset removes every message
func (d *Display) Reset() {
	d.slots = nil
}

// Len returns the number of slots
func (d *Display) Len() int {
	return len(d.slots)
}

// Render draws all slots as labelled bubbles of the given width
func (d *Display) Render(width int, agent string) string {
	var content strings.Builder

	for i, s := range d.slots {
		if i > 0 {
			content.WriteString("\n")
		}

		body := strings.TrimRight(s.content.String(), "\n")
		if s.role == models.RoleUser {
			content.WriteString(userLabelStyle.Render("● You") + "\n")
			content.WriteString(userBubbleStyle.Width(width).Render(body))
		} else {
			content.WriteString(agentLabelStyle.Render("✦ "+agent) + "\n")
			if body == "" {
				body = hintStyle.Render("…")
			}
			content.WriteString(agentBubbleStyle.Width(width).Render(body))
		}
		content.WriteString("\n")
	}

	return content.String()
}

type toast struct {
	id    int
	level session.Level
	msg   string
}

// toastExpiredMsg hides the toast with the given id
type toastExpiredMsg struct {
	id int
}

// Toaster shows one notification at a time. It implements session.Notifier.
type Toaster struct {
	current *toast
	seq     int
	pending bool
}

// Notify implements session.Notifier. A newer notification replaces the
// visible one.
func (t *Toaster) Notify(level session.Level, msg string) {
	t.seq++
	t.current = &toast{id: t.seq, level: level, msg: msg}
	t.pending = true
}

// Schedule returns the expiry timer for a notification posted since the
// last call, or nil.
func (t *Toaster) Schedule() tea.Cmd {
	if !t.pending || t.current == nil {
		return nil
	}
	t.pending = false
	id := t.current.id
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// Expire hides the toast if it is still the one with id
func (t *Toaster) Expire(id int) {
	if t.current != nil && t.current.id == id {
		t.current = nil
	}
}

// View renders the visible toast, or ""
func (t *Toaster) View() string {
	if t.current == nil {
		return ""
	}
	style, ok := toastStyles[t.current.level]
	if !ok {
		style = toastStyles[session.LevelInfo]
	}
	return style.Render(t.current.msg)
}

// confirmGate approves exactly one Confirm call after approve. The TUI asks
// the user itself and opens the gate only on "y".
type confirmGate struct {
	approved bool
}

func (g *confirmGate) approve() {
	g.approved = true
}

// Confirm implements session.Confirmer
func (g *confirmGate) Confirm(string) bool {
	ok := g.approved
	g.approved = false
	return ok
}
