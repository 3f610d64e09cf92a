// Package history provides the local archive of saved conversations.
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/models"
)

// KV is the storage port the archive is persisted through
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// Conversation is a saved snapshot of a transcript
type Conversation struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Messages  []models.Message `json:"messages"`
	Agent     string           `json:"agent"`
	Timestamp time.Time        `json:"timestamp"`
}

// UnmarshalJSON decodes a conversation, accepting the timestamp as an
// RFC 3339 string or epoch milliseconds. An unrecognized timestamp decodes
// as the zero time rather than failing the entry.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	type plain Conversation
	var raw struct {
		plain
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Conversation(raw.plain)
	c.Timestamp = parseTimestamp(raw.Timestamp)
	return nil
}

func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC()
		}
		return time.Time{}
	}
	if ms, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return time.UnixMilli(int64(ms)).UTC()
	}
	return time.Time{}
}

// Preview returns the start of the first message, for listings
func (c Conversation) Preview() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return cut(c.Messages[0].Content, models.PreviewLength)
}

// Store manages the conversation archive.
//
// The archive is a single JSON array under models.ArchiveKey, newest first,
// never longer than models.MaxArchiveSize. Every read goes to storage and
// every mutation rewrites the whole array. The mutex serializes
// read-modify-write within this process only: two processes saving at the
// same time can still overwrite each other's last write.
type Store struct {
	kv     KV
	mu     sync.Mutex
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for ids and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc overrides conversation id generation
func WithIDFunc(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithLogger sets the logger used to report unreadable archives
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an archive backed by kv
func NewStore(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newID == nil {
		s.newID = func() string { return generateConvID(s.now()) }
	}
	return s
}

func generateConvID(t time.Time) string {
	return fmt.Sprintf("conv_%d_%s", t.UnixMilli(), uuid.NewString()[:8])
}

// List returns the archive, newest first. An unreadable or corrupt archive
// is reported as empty.
func (s *Store) List() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

func (s *Store) load() []Conversation {
	data, found, err := s.kv.Get(models.ArchiveKey)
	if err != nil {
		s.logger.Warn("archive unreadable, treating as empty", slog.Any("error", err))
		return []Conversation{}
	}
	if !found || len(data) == 0 {
		return []Conversation{}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("archive corrupt, treating as empty", slog.Any("error", err))
		return []Conversation{}
	}

	convs := make([]Conversation, 0, len(entries))
	for i, entry := range entries {
		var conv Conversation
		if err := json.Unmarshal(entry, &conv); err != nil {
			s.logger.Warn("skipping unreadable conversation",
				slog.Int("index", i), slog.Any("error", err))
			continue
		}
		convs = append(convs, conv)
	}
	return convs
}

func (s *Store) persist(convs []Conversation) error {
	data, err := json.Marshal(convs)
	if err != nil {
		return fmt.Errorf("failed to marshal archive: %w", err)
	}
	if err := s.kv.Set(models.ArchiveKey, data); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

// Save snapshots transcript as a new conversation at the front of the
// archive, evicting the oldest entries beyond the size limit.
func (s *Store) Save(transcript models.Transcript, agent string) (Conversation, error) {
	if len(transcript) == 0 {
		return Conversation{}, apierrors.ErrNothingToSave
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv := Conversation{
		ID:        s.newID(),
		Title:     Title(transcript),
		Messages:  transcript.Clone(),
		Agent:     agent,
		Timestamp: s.now().UTC(),
	}

	convs := append([]Conversation{conv}, s.load()...)
	if len(convs) > models.MaxArchiveSize {
		convs = convs[:models.MaxArchiveSize]
	}

	if err := s.persist(convs); err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// Find returns the conversation with the given id
func (s *Store) Find(id string) (Conversation, bool) {
	for _, c := range s.List() {
		if c.ID == id {
			return c, true
		}
	}
	return Conversation{}, false
}

// Delete removes the conversation with the given id. Deleting an id that is
// not in the archive does nothing.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs := s.load()
	kept := convs[:0]
	for _, c := range convs {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(convs) {
		return nil
	}
	return s.persist(kept)
}

// Search returns conversations whose title contains term, ignoring case.
// An empty term returns the whole archive.
func (s *Store) Search(term string) []Conversation {
	convs := s.List()
	if term == "" {
		return convs
	}

	needle := strings.ToLower(term)
	var matches []Conversation
	for _, c := range convs {
		if strings.Contains(strings.ToLower(c.Title), needle) {
			matches = append(matches, c)
		}
	}
	if matches == nil {
		matches = []Conversation{}
	}
	return matches
}

// Clear removes every saved conversation
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persist([]Conversation{})
}

// Title derives a conversation title from the first user message
func Title(t models.Transcript) string {
	first, ok := t.FirstUser()
	if !ok {
		return models.UntitledTitle
	}
	return truncate(first.Content, models.TitleMaxLength)
}

// truncate cuts s to n characters, appending "..." when something was cut
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return cut(s, n) + "..."
}

func cut(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
