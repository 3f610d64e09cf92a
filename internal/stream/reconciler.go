// Package stream assembles streamed text fragments into a single rendered
// message.
package stream

import (
	"strings"
	"sync"

	"github.com/diogo/agentchat/internal/models"
	"github.com/diogo/agentchat/internal/render"
)

// Sink is the display surface. Slots are opaque handles to one message on
// screen; ReplaceSlot replaces the slot's content wholesale.
type Sink interface {
	NewSlot(role models.Role) int
	ReplaceSlot(slot int, m render.Markup)
}

// Handle tracks one in-progress agent message
type Handle struct {
	slot   int
	buf    strings.Builder
	closed bool
}

// Slot returns the display slot the message is drawn into
func (h *Handle) Slot() int {
	return h.slot
}

// Text returns the accumulated raw text
func (h *Handle) Text() string {
	return h.buf.String()
}

// Closed reports whether the message was completed
func (h *Handle) Closed() bool {
	return h.closed
}

// Reconciler turns fragments into re-rendered display updates.
//
// Every append re-renders the entire accumulated text, so constructs split
// across fragments (a code fence, a table row) always render as they would
// from the full text. The final display therefore depends only on the
// concatenation of fragments, never on where they were split.
type Reconciler struct {
	mu       sync.Mutex
	renderer render.Renderer
	sink     Sink
}

// NewReconciler creates a reconciler drawing into sink
func NewReconciler(r render.Renderer, sink Sink) *Reconciler {
	return &Reconciler{renderer: r, sink: sink}
}

// StartMessage allocates an empty agent slot
func (r *Reconciler) StartMessage() *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	return &Handle{slot: r.sink.NewSlot(models.RoleAgent)}
}

// AppendFragment adds text to h and redraws its slot. Appending to a nil or
// completed handle does nothing.
func (r *Reconciler) AppendFragment(h *Handle, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h == nil || h.closed {
		return
	}
	h.buf.WriteString(text)
	r.sink.ReplaceSlot(h.slot, r.renderer.Render(h.buf.String()))
}

// CompleteMessage closes h and returns its final text. Completing twice
// returns the same text.
func (r *Reconciler) CompleteMessage(h *Handle) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h == nil {
		return ""
	}
	h.closed = true
	return h.buf.String()
}

// Abandon closes h without a reply. When nothing arrived the slot shows
// note literally instead of staying empty.
func (r *Reconciler) Abandon(h *Handle, note string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h == nil || h.closed {
		return
	}
	h.closed = true
	if h.buf.Len() == 0 {
		r.sink.ReplaceSlot(h.slot, r.renderer.Literal(note))
	}
}

// Redraw renders text into a fresh slot for role. Agent text is rendered as
// markdown, anything else literally.
func (r *Reconciler) Redraw(role models.Role, text string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.sink.NewSlot(role)
	if role == models.RoleAgent {
		r.sink.ReplaceSlot(slot, r.renderer.Render(text))
	} else {
		r.sink.ReplaceSlot(slot, r.renderer.Literal(text))
	}
	return slot
}

// SetRenderer swaps the renderer for later updates
func (r *Reconciler) SetRenderer(rr render.Renderer) {
	r.mu.Lock()
	r.renderer = rr
	r.mu.Unlock()
}
