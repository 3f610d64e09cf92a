package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/models"
)

type submitPayload struct {
	Message string `json:"message"`
}

// Submit posts text to the session. The reply arrives on the push channel;
// the response body is only inspected to describe a failure.
func (c *Client) Submit(ctx context.Context, sessionID, text string) error {
	endpoint := c.endpoint(models.SendPath(sessionID))

	payload, err := json.Marshal(submitPayload{Message: text})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return apierrors.NewNetworkErrorWithEndpoint("submit", endpoint, err)
	}
	setHeaders(req, models.DefaultHeaders())
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("submitting message", slog.String("session", sessionID), slog.Int("length", len(text)))

	resp, err := c.requests.Do(req)
	if err != nil {
		return apierrors.NewNetworkErrorWithEndpoint("submit", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, failureMessage(body), string(body))
	}
	return nil
}

// failureMessage extracts a human readable reason from an error body
func failureMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		for _, path := range []string{"error", "detail", "message"} {
			if v := parsed.Get(path); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
	}
	return "request failed"
}
