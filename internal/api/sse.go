package api

import (
	"bufio"
	"bytes"
	"io"
)

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next event. Multiple data lines are joined with "\n".
// Comment lines (":") and the id and retry fields are skipped. Returns
// io.EOF when the stream ends cleanly between events and
// io.ErrUnexpectedEOF when it ends inside one.
func (s *SSEReader) ReadEvent() (eventType string, data []byte, err error) {
	var dataLines [][]byte
	started := false

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(line) > 0 || started {
					return "", nil, io.ErrUnexpectedEOF
				}
				return "", nil, io.EOF
			}
			return "", nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			// blank line with no data: reset
			eventType, started = "", false
			continue
		}

		switch {
		case line[0] == ':':
			continue
		case bytes.HasPrefix(line, []byte("event:")):
			eventType = string(bytes.TrimSpace(line[6:]))
			started = true
		case bytes.HasPrefix(line, []byte("data:")):
			value := line[5:]
			if len(value) > 0 && value[0] == ' ' {
				value = value[1:]
			}
			dataLines = append(dataLines, value)
			started = true
		}
	}
}
