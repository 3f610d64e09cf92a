package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/diogo/agentchat/internal/api"
	"github.com/diogo/agentchat/internal/config"
)

// fakeServer plays the agent server for both the push channel and
// submissions. After each accepted message it streams script.
type fakeServer struct {
	mu sync.Mutex

	script       []string
	sendStatus   int
	eventsStatus int
	health       string

	sent []string
	pw   *io.PipeWriter
}

func chunkEvent(text string) string {
	data, _ := json.Marshal(map[string]string{"type": "chunk", "content": text})
	return string(data)
}

func errorEvent(msg string) string {
	data, _ := json.Marshal(map[string]string{"type": "error", "error": msg})
	return string(data)
}

const completeEvent = `{"type":"complete","full_response":""}`

func fakeResponse(status int, body io.ReadCloser) *fhttp.Response {
	return &fhttp.Response{
		StatusCode: status,
		Header:     make(fhttp.Header),
		Body:       body,
	}
}

func (s *fakeServer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	path := req.URL.Path

	switch {
	case req.Method == fhttp.MethodGet && strings.HasPrefix(path, "/events/"):
		if s.eventsStatus != 0 {
			return fakeResponse(s.eventsStatus, io.NopCloser(strings.NewReader("unavailable"))), nil
		}
		pr, pw := io.Pipe()
		s.mu.Lock()
		s.pw = pw
		s.mu.Unlock()

		go func() {
			<-req.Context().Done()
			_ = pw.CloseWithError(req.Context().Err())
		}()
		go s.emit(`{"type":"connected","session_id":"` + strings.TrimPrefix(path, "/events/") + `"}`)
		return fakeResponse(fhttp.StatusOK, pr), nil

	case req.Method == fhttp.MethodPost && strings.HasPrefix(path, "/send/"):
		body, _ := io.ReadAll(req.Body)
		s.mu.Lock()
		s.sent = append(s.sent, gjson.GetBytes(body, "message").String())
		s.mu.Unlock()

		if s.sendStatus != 0 {
			return fakeResponse(s.sendStatus, io.NopCloser(strings.NewReader(`{"error":"queue full"}`))), nil
		}
		go s.emit(s.script...)
		return fakeResponse(fhttp.StatusOK, io.NopCloser(strings.NewReader(`{"status":"ok"}`))), nil

	case req.Method == fhttp.MethodGet && path == "/health":
		return fakeResponse(fhttp.StatusOK, io.NopCloser(strings.NewReader(s.health))), nil
	}

	return fakeResponse(fhttp.StatusNotFound, io.NopCloser(strings.NewReader("not found"))), nil
}

func (s *fakeServer) emit(events ...string) {
	s.mu.Lock()
	pw := s.pw
	s.mu.Unlock()
	for _, ev := range events {
		if _, err := fmt.Fprintf(pw, "data: %s\n\n", ev); err != nil {
			return
		}
	}
}

func (s *fakeServer) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// testEnv isolates config and archive in a temp dir
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvHome, dir)
	t.Setenv(config.EnvServer, "")
	t.Setenv("GLAMOUR_STYLE", "")
	return dir
}

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

// runCmd executes the command tree against fs with stdin
func runCmd(t *testing.T, fs *fakeServer, stdin string, args ...string) cmdResult {
	t.Helper()

	var root *cobra.Command
	if fs != nil {
		root = newRootCmd(api.WithHTTPClient(fs), api.WithStreamClient(fs))
	} else {
		root = newRootCmd()
	}

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}
