package api

import (
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/models"
)

// JSON paths in event payloads
const (
	pathType         = "type"
	pathContent      = "content"
	pathError        = "error"
	pathAuthor       = "author"
	pathSessionID    = "session_id"
	pathFullResponse = "full_response"
)

// DecodeEvent parses one event payload. Payloads with an unrecognized type
// decode successfully as models.EventUnknown.
func DecodeEvent(data []byte) (models.Event, error) {
	if !gjson.ValidBytes(data) {
		return models.Event{}, apierrors.NewParseError("event payload is not valid JSON", string(data))
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		return models.Event{}, apierrors.NewParseError("event payload is not an object", string(data))
	}

	raw := parsed.Get(pathType).String()
	return models.Event{
		Type:         models.ParseEventType(raw),
		RawType:      raw,
		Content:      parsed.Get(pathContent).String(),
		Error:        parsed.Get(pathError).String(),
		Author:       parsed.Get(pathAuthor).String(),
		SessionID:    parsed.Get(pathSessionID).String(),
		FullResponse: parsed.Get(pathFullResponse).String(),
	}, nil
}
