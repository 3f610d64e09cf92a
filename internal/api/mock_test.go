package api

import (
	"io"
	"strings"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
)

// MockResponseBody is a ReadCloser that simulates reading response data
type MockResponseBody struct {
	data   []byte
	pos    int
	closed bool
}

// NewMockResponseBody creates a new MockResponseBody with the given data
func NewMockResponseBody(data []byte) *MockResponseBody {
	return &MockResponseBody{data: data}
}

func (m *MockResponseBody) Read(p []byte) (int, error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func (m *MockResponseBody) Close() error {
	m.closed = true
	return nil
}

// MockDoer records requests and answers them with a canned response
type MockDoer struct {
	mu       sync.Mutex
	Response *fhttp.Response
	Err      error
	Requests []*fhttp.Request
	Bodies   []string
}

func (m *MockDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		m.Bodies = append(m.Bodies, string(b))
	} else {
		m.Bodies = append(m.Bodies, "")
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockDoer) LastRequest() *fhttp.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

func response(status int, body string) *fhttp.Response {
	return &fhttp.Response{
		StatusCode: status,
		Header:     make(fhttp.Header),
		Body:       NewMockResponseBody([]byte(body)),
	}
}

// StreamDoer serves a pipe as the response body so tests can feed events
// one at a time. The body is closed when the request context ends.
type StreamDoer struct {
	Status int
	Err    error
	reader *io.PipeReader
	writer *io.PipeWriter
	req    chan *fhttp.Request
}

func NewStreamDoer() *StreamDoer {
	r, w := io.Pipe()
	return &StreamDoer{Status: fhttp.StatusOK, reader: r, writer: w, req: make(chan *fhttp.Request, 1)}
}

func (s *StreamDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	s.req <- req
	if s.Err != nil {
		return nil, s.Err
	}
	go func() {
		<-req.Context().Done()
		_ = s.reader.CloseWithError(req.Context().Err())
	}()
	return &fhttp.Response{
		StatusCode: s.Status,
		Header:     make(fhttp.Header),
		Body:       s.reader,
	}, nil
}

// Send writes one SSE event carrying data
func (s *StreamDoer) Send(data string) {
	_, _ = io.Copy(s.writer, strings.NewReader("data: "+data+"\n\n"))
}

// Raw writes bytes to the stream as-is
func (s *StreamDoer) Raw(text string) {
	_, _ = io.Copy(s.writer, strings.NewReader(text))
}

// Hangup ends the stream as if the server closed the connection
func (s *StreamDoer) Hangup() {
	_ = s.writer.Close()
}
