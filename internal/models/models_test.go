package models

import "testing"

func TestTranscript_AppendAndClone(t *testing.T) {
	var tr Transcript
	tr = tr.Append(RoleUser, "Hello")
	tr = tr.Append(RoleAgent, "Hi there!")

	clone := tr.Clone()
	clone[0].Content = "changed"

	if tr[0].Content != "Hello" {
		t.Errorf("Clone shares storage with original: %q", tr[0].Content)
	}
	if len(clone) != 2 {
		t.Errorf("len(clone) = %d, want 2", len(clone))
	}
}

func TestTranscript_FirstUserAndLastAgent(t *testing.T) {
	tr := Transcript{
		{Role: RoleAgent, Content: "greeting"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAgent, Content: "reply"},
		{Role: RoleUser, Content: "second"},
	}

	if m, ok := tr.FirstUser(); !ok || m.Content != "first" {
		t.Errorf("FirstUser() = %q, %v", m.Content, ok)
	}
	if m, ok := tr.LastAgent(); !ok || m.Content != "reply" {
		t.Errorf("LastAgent() = %q, %v", m.Content, ok)
	}

	var empty Transcript
	if _, ok := empty.FirstUser(); ok {
		t.Error("FirstUser on empty transcript should report false")
	}
}

func TestParseEventType(t *testing.T) {
	tests := []struct {
		in   string
		want EventType
	}{
		{"connected", EventConnected},
		{"chunk", EventChunk},
		{"complete", EventComplete},
		{"error", EventError},
		{"start", EventUnknown},
		{"", EventUnknown},
		{"CHUNK", EventUnknown},
	}

	for _, tt := range tests {
		if got := ParseEventType(tt.in); got != tt.want {
			t.Errorf("ParseEventType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAgentByName(t *testing.T) {
	a, ok := AgentByName("  Inventory_Agent ")
	if !ok {
		t.Fatal("expected inventory_agent to be found")
	}
	if a.Name != "inventory_agent" {
		t.Errorf("Name = %s, want inventory_agent", a.Name)
	}

	if _, ok := AgentByName("nope"); ok {
		t.Error("unexpected match for unknown agent")
	}

	if _, ok := AgentByName(DefaultAgent); !ok {
		t.Error("default agent must be in the agent list")
	}
}

func TestPaths(t *testing.T) {
	if got := EventsPath("s1"); got != "/events/s1" {
		t.Errorf("EventsPath = %s", got)
	}
	if got := SendPath("s1"); got != "/send/s1" {
		t.Errorf("SendPath = %s", got)
	}
	if StreamHeaders()["Accept"] != "text/event-stream" {
		t.Error("stream headers must accept text/event-stream")
	}
}
