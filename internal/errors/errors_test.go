package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestNetworkError(t *testing.T) {
	err := NewNetworkErrorWithEndpoint("submit", "/send/s1", io.ErrUnexpectedEOF)

	expected := "network error during submit at /send/s1: unexpected EOF"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrNetwork) {
		t.Error("expected NetworkError to match ErrNetwork")
	}

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected NetworkError to unwrap to the cause")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !IsNetworkError(wrapped) {
		t.Error("IsNetworkError should see through wrapping")
	}
	if GetEndpoint(wrapped) != "/send/s1" {
		t.Errorf("GetEndpoint = %q", GetEndpoint(wrapped))
	}
}

func TestNetworkErrorWithoutEndpoint(t *testing.T) {
	err := NewNetworkError("connect", errors.New("refused"))
	if err.Error() != "network error during connect: refused" {
		t.Errorf("Error() = %s", err.Error())
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIErrorWithBody(502, "/send/s1", "submit failed", "bad gateway")

	expected := "API error [502] at /send/s1: submit failed"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if GetHTTPStatus(err) != 502 {
		t.Errorf("GetHTTPStatus = %d, want 502", GetHTTPStatus(err))
	}
	if GetResponseBody(err) != "bad gateway" {
		t.Errorf("GetResponseBody = %q", GetResponseBody(err))
	}
	if IsNetworkError(err) {
		t.Error("APIError is not a network error")
	}
	if !IsTransportError(err) {
		t.Error("APIError counts as a transport failure")
	}

	noStatus := NewAPIError(0, "/health", "bad")
	if noStatus.Error() != "API error at /health: bad" {
		t.Errorf("Error() = %s", noStatus.Error())
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError("not json", "data: {")

	if err.Error() != "parse error: not json" {
		t.Errorf("Error() = %s", err.Error())
	}
	if !errors.Is(err, ErrInvalidResponse) {
		t.Error("expected ParseError to match ErrInvalidResponse")
	}
	if errors.Is(err, ErrNetwork) {
		t.Error("ParseError must not match ErrNetwork")
	}
}

func TestHelpersOnPlainErrors(t *testing.T) {
	plain := errors.New("plain")

	if GetHTTPStatus(plain) != 0 {
		t.Error("expected 0 status for plain error")
	}
	if GetEndpoint(plain) != "" {
		t.Error("expected empty endpoint for plain error")
	}
	if IsTransportError(plain) {
		t.Error("plain error is not a transport error")
	}
	if IsTransportError(nil) {
		t.Error("nil is not a transport error")
	}
}
