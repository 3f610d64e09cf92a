// Package models contains data types and constants shared by the agentchat client.
package models

import "fmt"

// Server paths, relative to the configured server URL
const (
	PathEvents = "/events/%s"
	PathSend   = "/send/%s"
	PathHealth = "/health"
)

// DefaultServerURL is where the agent team UI server listens by default
const DefaultServerURL = "http://127.0.0.1:8082"

// ArchiveKey is the storage key holding the serialized conversation archive
const ArchiveKey = "conversations"

// MaxArchiveSize caps the number of saved conversations
const MaxArchiveSize = 50

// Title derivation limits
const (
	TitleMaxLength = 50
	PreviewLength  = 100
	UntitledTitle  = "Untitled"
)

// EventsPath returns the push channel path for a session
func EventsPath(sessionID string) string {
	return fmt.Sprintf(PathEvents, sessionID)
}

// SendPath returns the submission path for a session
func SendPath(sessionID string) string {
	return fmt.Sprintf(PathSend, sessionID)
}

// DefaultHeaders returns headers sent with every request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "agentchat/0.1 (+https://github.com/diogo/agentchat)",
		"Accept-Language": "en-US,en;q=0.9",
	}
}

// StreamHeaders returns headers for the server-sent events request
func StreamHeaders() map[string]string {
	h := DefaultHeaders()
	h["Accept"] = "text/event-stream"
	h["Cache-Control"] = "no-cache"
	h["Connection"] = "keep-alive"
	return h
}
