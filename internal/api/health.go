package api

import (
	"context"
	"io"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/models"
)

// Health is the server status report
type Health struct {
	Status   string
	Agent    string
	Sessions int
}

// OK reports whether the server considers itself healthy
func (h Health) OK() bool {
	return h.Status == "healthy"
}

// Health queries the server status endpoint
func (c *Client) Health(ctx context.Context) (Health, error) {
	endpoint := c.endpoint(models.PathHealth)

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, endpoint, nil)
	if err != nil {
		return Health{}, apierrors.NewNetworkErrorWithEndpoint("health", endpoint, err)
	}
	setHeaders(req, models.DefaultHeaders())
	req.Header.Set("Accept", "application/json")

	resp, err := c.requests.Do(req)
	if err != nil {
		return Health{}, apierrors.NewNetworkErrorWithEndpoint("health", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return Health{}, apierrors.NewNetworkErrorWithEndpoint("health", endpoint, err)
	}

	if resp.StatusCode != fhttp.StatusOK {
		return Health{}, apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, failureMessage(body), string(body))
	}

	if !gjson.ValidBytes(body) {
		return Health{}, apierrors.NewParseError("health response is not valid JSON", string(body))
	}
	parsed := gjson.ParseBytes(body)

	return Health{
		Status:   parsed.Get("status").String(),
		Agent:    parsed.Get("agent").String(),
		Sessions: int(parsed.Get("sessions").Int()),
	}, nil
}
