package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/agentchat/internal/history"
	"github.com/diogo/agentchat/internal/render"
)

// historyPanel lists saved conversations with a live title filter
type historyPanel struct {
	store  *history.Store
	search textinput.Model
	items  []history.Conversation
	cursor int
}

func newHistoryPanel(store *history.Store) historyPanel {
	ti := textinput.New()
	ti.Placeholder = "Search titles..."
	ti.Prompt = "🔍 "
	ti.CharLimit = 100

	return historyPanel{store: store, search: ti}
}

// open resets the filter, focuses the search box and reloads the list
func (p *historyPanel) open() tea.Cmd {
	p.search.SetValue("")
	p.cursor = 0
	p.refresh()
	return p.search.Focus()
}

func (p *historyPanel) close() {
	p.search.Blur()
}

// refresh re-reads the archive using the current filter
func (p *historyPanel) refresh() {
	p.items = p.store.Search(p.search.Value())
	if p.cursor >= len(p.items) {
		p.cursor = len(p.items) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p historyPanel) selected() (history.Conversation, bool) {
	if p.cursor < 0 || p.cursor >= len(p.items) {
		return history.Conversation{}, false
	}
	return p.items[p.cursor], true
}

// update handles navigation keys; everything else edits the filter
func (p historyPanel) update(msg tea.KeyMsg) (historyPanel, tea.Cmd) {
	switch msg.String() {
	case "up", "ctrl+p":
		if p.cursor > 0 {
			p.cursor--
		}
		return p, nil
	case "down", "ctrl+n":
		if p.cursor < len(p.items)-1 {
			p.cursor++
		}
		return p, nil
	case "home":
		p.cursor = 0
		return p, nil
	case "end":
		if len(p.items) > 0 {
			p.cursor = len(p.items) - 1
		}
		return p, nil
	}

	before := p.search.Value()
	var cmd tea.Cmd
	p.search, cmd = p.search.Update(msg)
	if p.search.Value() != before {
		p.cursor = 0
		p.refresh()
	}
	return p, cmd
}

func (p historyPanel) view(width, height int) string {
	var b strings.Builder

	b.WriteString(panelTitleStyle.Render("📜 Saved conversations"))
	b.WriteString("\n")
	b.WriteString(p.search.View())
	b.WriteString("\n\n")

	if len(p.items) == 0 {
		if p.search.Value() != "" {
			b.WriteString(hintStyle.Render("No conversations match."))
		} else {
			b.WriteString(hintStyle.Render("No saved conversations yet. Press Ctrl+S in a chat to save one."))
		}
		return panelStyle.Width(width).Height(height).Render(b.String())
	}

	// Each entry takes three lines; keep the cursor in view
	visible := (height - 4) / 3
	if visible < 1 {
		visible = 1
	}
	start := 0
	if p.cursor >= visible {
		start = p.cursor - visible + 1
	}
	end := start + visible
	if end > len(p.items) {
		end = len(p.items)
	}

	for i := start; i < end; i++ {
		conv := p.items[i]
		title := render.StripTerminal(conv.Title)
		if i == p.cursor {
			b.WriteString(panelSelectedStyle.Render("▸ " + title))
		} else {
			b.WriteString(panelItemStyle.Render(title))
		}
		b.WriteString("\n")

		meta := fmt.Sprintf("%d messages • %s • %s",
			len(conv.Messages), render.StripTerminal(conv.Agent), history.FormatRelativeTime(conv.Timestamp))
		b.WriteString(panelMetaStyle.Render(meta))
		b.WriteString("\n")

		b.WriteString(panelPreviewStyle.Render(strings.ReplaceAll(render.StripTerminal(conv.Preview()), "\n", " ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("enter load • ctrl+d delete • esc close"))

	return panelStyle.Width(width).Height(height).Render(b.String())
}
