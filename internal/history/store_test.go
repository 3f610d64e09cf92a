package history

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/models"
	"github.com/diogo/agentchat/internal/storage"
)

type failingKV struct {
	getErr error
	setErr error
}

func (f failingKV) Get(string) ([]byte, bool, error) { return nil, false, f.getErr }
func (f failingKV) Set(string, []byte) error         { return f.setErr }

// newTestStore returns a store over memory storage with deterministic ids
// and a clock that advances one second per call.
func newTestStore(t *testing.T) (*Store, *storage.Memory) {
	t.Helper()

	kv := storage.NewMemory()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ticks, ids int
	store := NewStore(kv,
		WithClock(func() time.Time {
			ticks++
			return base.Add(time.Duration(ticks) * time.Second)
		}),
		WithIDFunc(func() string {
			ids++
			return fmt.Sprintf("conv_%d", ids)
		}),
	)
	return store, kv
}

func transcript(pairs ...string) models.Transcript {
	var t models.Transcript
	for i, content := range pairs {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAgent
		}
		t = t.Append(role, content)
	}
	return t
}

func TestStore_ListEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	convs := store.List()
	if convs == nil || len(convs) != 0 {
		t.Errorf("expected empty non-nil list, got %v", convs)
	}
}

func TestStore_SaveHello(t *testing.T) {
	store, _ := newTestStore(t)

	conv, err := store.Save(transcript("Hello", "Hi there!"), "retail_coordinator")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if conv.Title != "Hello" {
		t.Errorf("Title = %q, want Hello", conv.Title)
	}
	if conv.Agent != "retail_coordinator" {
		t.Errorf("Agent = %q", conv.Agent)
	}
	if len(conv.Messages) != 2 || conv.Messages[1].Content != "Hi there!" {
		t.Errorf("Messages = %+v", conv.Messages)
	}

	list := store.List()
	if len(list) != 1 || list[0].ID != conv.ID {
		t.Fatalf("List = %+v", list)
	}
	if !list[0].Timestamp.Equal(conv.Timestamp) || list[0].Title != conv.Title {
		t.Error("listed conversation differs from saved one")
	}
}

func TestStore_SaveEmptyRejected(t *testing.T) {
	store, kv := newTestStore(t)

	_, err := store.Save(nil, "retail_coordinator")
	if !errors.Is(err, apierrors.ErrNothingToSave) {
		t.Errorf("expected ErrNothingToSave, got %v", err)
	}
	if _, found, _ := kv.Get(models.ArchiveKey); found {
		t.Error("empty save should not write the archive")
	}
}

func TestStore_SaveIsSnapshot(t *testing.T) {
	store, _ := newTestStore(t)
	tr := transcript("one")

	conv, _ := store.Save(tr, "a")
	tr[0].Content = "changed"

	if conv.Messages[0].Content != "one" {
		t.Error("saved conversation aliases the live transcript")
	}
}

func TestStore_NewestFirstAndCapped(t *testing.T) {
	store, _ := newTestStore(t)

	for i := 1; i <= models.MaxArchiveSize+1; i++ {
		if _, err := store.Save(transcript(fmt.Sprintf("message %d", i)), "a"); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	list := store.List()
	if len(list) != models.MaxArchiveSize {
		t.Fatalf("len = %d, want %d", len(list), models.MaxArchiveSize)
	}
	if list[0].Title != "message 51" {
		t.Errorf("newest = %q, want message 51", list[0].Title)
	}
	if list[len(list)-1].Title != "message 2" {
		t.Errorf("oldest = %q, want message 2 (message 1 evicted)", list[len(list)-1].Title)
	}
	if _, ok := store.Find("conv_1"); ok {
		t.Error("first conversation should have been evicted")
	}
}

func TestStore_FindAndDelete(t *testing.T) {
	store, _ := newTestStore(t)
	a, _ := store.Save(transcript("alpha"), "x")
	b, _ := store.Save(transcript("beta"), "x")

	if got, ok := store.Find(a.ID); !ok || got.Title != "alpha" {
		t.Errorf("Find(a) = %v, %v", got, ok)
	}

	if err := store.Delete(a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := store.Find(a.ID); ok {
		t.Error("deleted conversation still found")
	}
	if _, ok := store.Find(b.ID); !ok {
		t.Error("other conversation lost")
	}

	if err := store.Delete("conv_missing"); err != nil {
		t.Errorf("deleting an absent id should be a no-op, got %v", err)
	}
	if len(store.List()) != 1 {
		t.Error("absent delete changed the archive")
	}
}

func TestStore_Search(t *testing.T) {
	store, _ := newTestStore(t)
	_, _ = store.Save(transcript("Find running SHOES"), "x")
	_, _ = store.Save(transcript("Order status"), "x")
	_, _ = store.Save(transcript("Return shoes"), "x")

	tests := []struct {
		term string
		want int
	}{
		{"shoes", 2},
		{"SHOES", 2},
		{"order", 1},
		{"nothing", 0},
		{"", 3},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := store.Search(tt.term)
			if len(got) != tt.want {
				t.Errorf("Search(%q) returned %d, want %d", tt.term, len(got), tt.want)
			}
			if got == nil {
				t.Error("Search should never return nil")
			}
		})
	}
}

func TestStore_SearchMatchesTitleOnly(t *testing.T) {
	store, _ := newTestStore(t)
	_, _ = store.Save(transcript("Hello", "The inventory is low"), "x")

	if got := store.Search("inventory"); len(got) != 0 {
		t.Errorf("search matched message body: %v", got)
	}
}

func TestStore_CorruptArchiveIsEmpty(t *testing.T) {
	store, kv := newTestStore(t)
	_ = kv.Set(models.ArchiveKey, []byte("{not json"))

	if got := store.List(); len(got) != 0 {
		t.Errorf("corrupt archive should list as empty, got %v", got)
	}

	// Saving over a corrupt archive starts a fresh one
	if _, err := store.Save(transcript("fresh"), "x"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got := store.List(); len(got) != 1 || got[0].Title != "fresh" {
		t.Errorf("List = %v", got)
	}
}

func TestStore_LenientEntries(t *testing.T) {
	store, kv := newTestStore(t)
	archive := `[
		{"id":"conv_b","title":"epoch","messages":[{"role":"user","content":"hi"}],"agent":"a","timestamp":1767225600000},
		{"id":"conv_a","title":"iso","messages":[],"agent":"a","timestamp":"2026-01-01T00:00:00.000Z"},
		{"id":"conv_bad","title":"broken","messages":"oops","agent":"a","timestamp":"x"},
		{"id":"conv_c","title":"odd stamp","messages":[],"agent":"a","timestamp":{"when":"today"}}
	]`
	_ = kv.Set(models.ArchiveKey, []byte(archive))

	got := store.List()
	if len(got) != 3 {
		t.Fatalf("List returned %d conversations, want 3: %+v", len(got), got)
	}
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got[0].Timestamp.Equal(want) || !got[1].Timestamp.Equal(want) {
		t.Errorf("timestamps = %v, %v, want %v", got[0].Timestamp, got[1].Timestamp, want)
	}
	if !got[2].Timestamp.IsZero() {
		t.Errorf("unrecognized timestamp should be zero, got %v", got[2].Timestamp)
	}

	if _, err := store.Save(transcript("new"), "a"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got := store.List(); len(got) != 4 {
		t.Errorf("Save should keep readable entries, List has %d", len(got))
	}
}

func TestStore_UnreadableStorage(t *testing.T) {
	store := NewStore(failingKV{getErr: errors.New("disk gone")})

	if got := store.List(); len(got) != 0 {
		t.Errorf("unreadable storage should list as empty, got %v", got)
	}
	if got := store.Search("x"); len(got) != 0 {
		t.Error("unreadable storage should search as empty")
	}
}

func TestStore_WriteFailureSurfaces(t *testing.T) {
	store := NewStore(failingKV{setErr: errors.New("quota exceeded")})

	if _, err := store.Save(transcript("x"), "a"); err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected write error, got %v", err)
	}
}

func TestStore_Clear(t *testing.T) {
	store, _ := newTestStore(t)
	_, _ = store.Save(transcript("a"), "x")
	_, _ = store.Save(transcript("b"), "x")

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if len(store.List()) != 0 {
		t.Error("archive not empty after Clear")
	}
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	kv := storage.NewMemory()
	saved, err := NewStore(kv).Save(transcript("persisted"), "inventory_agent")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(saved.ID, "conv_") {
		t.Errorf("ID = %q, want conv_ prefix", saved.ID)
	}

	got, ok := NewStore(kv).Find(saved.ID)
	if !ok || got.Agent != "inventory_agent" {
		t.Errorf("second store did not see saved conversation: %+v", got)
	}
}

func TestTitle(t *testing.T) {
	long := strings.Repeat("a", 60)

	tests := []struct {
		name string
		tr   models.Transcript
		want string
	}{
		{"short", transcript("Hello"), "Hello"},
		{"exactly 50", transcript(strings.Repeat("b", 50)), strings.Repeat("b", 50)},
		{"long", transcript(long), strings.Repeat("a", 50) + "..."},
		{"multibyte", transcript(strings.Repeat("é", 51)), strings.Repeat("é", 50) + "..."},
		{"agent only", models.Transcript{{Role: models.RoleAgent, Content: "hi"}}, "Untitled"},
		{
			"first user wins",
			models.Transcript{{Role: models.RoleAgent, Content: "welcome"}, {Role: models.RoleUser, Content: "question"}},
			"question",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.tr); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConversation_Preview(t *testing.T) {
	c := Conversation{Messages: transcript(strings.Repeat("x", 150))}
	if got := c.Preview(); len(got) != models.PreviewLength {
		t.Errorf("Preview length = %d, want %d", len(got), models.PreviewLength)
	}
	if (Conversation{}).Preview() != "" {
		t.Error("empty conversation preview should be empty")
	}
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5 min ago"},
		{3 * time.Hour, "3h ago"},
		{30 * time.Hour, "yesterday"},
		{4 * 24 * time.Hour, "4 days ago"},
		{20 * 24 * time.Hour, "2026-02-18"},
	}

	for _, tt := range tests {
		if got := formatRelative(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelative(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
	if got := formatRelative(time.Time{}, now); got != "unknown" {
		t.Errorf("zero time = %q, want unknown", got)
	}
}
