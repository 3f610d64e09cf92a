package history

import (
	"fmt"
	"strconv"
	"strings"

	apierrors "github.com/diogo/agentchat/internal/errors"
)

// Resolver resolves user-friendly references to saved conversations
type Resolver struct {
	store *Store
}

// NewResolver creates a new reference resolver
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve converts a reference to a conversation.
//
// Supported references:
//   - "@last" - most recently saved conversation
//   - "@first" - oldest conversation still in the archive
//   - "1", "2", "3" - by position (1-based, newest first)
//   - "conv_..." - direct ID
//   - anything else - case-insensitive title substring (must be unique)
func (r *Resolver) Resolve(ref string) (Conversation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Conversation{}, fmt.Errorf("empty reference")
	}

	convs := r.store.List()
	if len(convs) == 0 {
		return Conversation{}, fmt.Errorf("no saved conversations: %w", apierrors.ErrNotFound)
	}

	switch strings.ToLower(ref) {
	case "@last":
		return convs[0], nil
	case "@first":
		return convs[len(convs)-1], nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(convs) {
			return Conversation{}, fmt.Errorf("index %d out of range (1-%d)", index, len(convs))
		}
		return convs[index-1], nil
	}

	for _, c := range convs {
		if c.ID == ref {
			return c, nil
		}
	}
	if strings.HasPrefix(ref, "conv_") {
		return Conversation{}, fmt.Errorf("%s: %w", ref, apierrors.ErrNotFound)
	}

	matches := r.store.Search(ref)
	switch len(matches) {
	case 0:
		return Conversation{}, fmt.Errorf("no conversation matching '%s': %w", ref, apierrors.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		titles := make([]string, len(matches))
		for i, m := range matches {
			titles[i] = fmt.Sprintf("'%s'", m.Title)
		}
		return Conversation{}, fmt.Errorf("multiple conversations match '%s': %s. Use ID or be more specific",
			ref, strings.Join(titles, ", "))
	}
}

// ListAliases describes the supported reference forms
func ListAliases() string {
	return `Supported references:
  @last          Most recently saved conversation
  @first         Oldest conversation in the archive
  1, 2, 3        By position (1-based, newest first)
  conv_...       Direct conversation ID
  "text"         Search by title substring`
}
