package models

// Role identifies who authored a message
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAgent
}

// Message is a single transcript entry. Messages are never edited once appended.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is the ordered message list of the active session
type Transcript []Message

// Append returns the transcript with msg added at the end
func (t Transcript) Append(role Role, content string) Transcript {
	return append(t, Message{Role: role, Content: content})
}

// Clone returns an independent copy of the transcript
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// FirstUser returns the first user-authored message, if any
func (t Transcript) FirstUser() (Message, bool) {
	for _, m := range t {
		if m.Role == RoleUser {
			return m, true
		}
	}
	return Message{}, false
}

// LastAgent returns the most recent agent message, if any
func (t Transcript) LastAgent() (Message, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == RoleAgent {
			return t[i], true
		}
	}
	return Message{}, false
}
