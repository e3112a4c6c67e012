package capi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ClientConfig identifies the destination pixel. Loaded once at boot and
// injected; never read from the environment at call sites.
type ClientConfig struct {
	BaseURL       string
	APIVersion    string
	PixelID       string
	AccessToken   string
	TestEventCode string
}

// Configured reports whether the minimum credentials for an outbound call
// are present. When false the dispatch gate fails closed.
func (c ClientConfig) Configured() bool {
	return c.BaseURL != "" && c.PixelID != "" && c.AccessToken != ""
}

// Client performs the outbound Conversions API call. One bounded attempt per
// event, no queue, no retry: at-most-once delivery is deliberate, because a
// duplicate conversion count is worse than an occasional drop.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient builds a relay client with a bounded per-attempt timeout.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// eventsURL builds {base}/{version}/{pixel}/events with the credential and
// optional test-routing code in the query string.
func (c *Client) eventsURL() string {
	u := c.cfg.BaseURL + "/" + c.cfg.APIVersion + "/" + c.cfg.PixelID + "/events"
	q := url.Values{}
	q.Set("access_token", c.cfg.AccessToken)
	if c.cfg.TestEventCode != "" {
		q.Set("test_event_code", c.cfg.TestEventCode)
	}
	return u + "?" + q.Encode()
}

// Send serializes the envelope as {"data":[event]} and interprets the reply:
//
//   - 2xx with events_received ≥ 1 → success
//   - 2xx carrying an error object → *PlatformError (a 200 is not a success)
//   - 4xx → *ConfigRejection (bad credential / pixel id)
//   - 5xx or transport failure → *TransientError
func (c *Client) Send(ctx context.Context, env Envelope) (*Response, error) {
	if !c.cfg.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(payload{Data: []Envelope{env}})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.eventsURL(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	var out Response
	// The body may not be JSON on gateway errors; classification below does
	// not depend on a successful decode.
	_ = json.Unmarshal(raw, &out)

	switch {
	case resp.StatusCode >= 500:
		return &out, &TransientError{Err: fmt.Errorf("upstream status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return &out, &ConfigRejection{Status: resp.StatusCode, Platform: out.Err}
	case out.Err != nil:
		return &out, out.Err
	case out.EventsReceived >= 1:
		return &out, nil
	default:
		return &out, &PlatformError{
			Message: "response reported no events received",
			Type:    "unexpected_response",
		}
	}
}

// Forward relays a caller-built data array upstream and returns the
// upstream status and body verbatim, for the proxy endpoint.
func (c *Client) Forward(ctx context.Context, data json.RawMessage) (int, []byte, error) {
	if !c.cfg.Configured() {
		return 0, nil, ErrNotConfigured
	}

	body, err := json.Marshal(map[string]json.RawMessage{"data": data})
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.eventsURL(), bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransientError{Err: err}
	}
	return resp.StatusCode, raw, nil
}
