package subscribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// tokenLifetime is how long an exchanged bearer credential is reused before
// a fresh exchange.
const tokenLifetime = 24 * time.Hour

// Config identifies the external subscription store and the credentials for
// its token exchange.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	EnterpriseID int
}

func (c Config) Configured() bool {
	return c.BaseURL != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Subscription is the write sent to the store. The store is an opaque sink;
// nothing about its internals is modeled here.
type Subscription struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	AreaOfInterest string `json:"areaOfInterest"`
	EnterpriseID   int    `json:"enterpriseId"`
}

// APIError is a failure reported by the subscription store. Unlike tracking
// failures, these do surface to the end user.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("subscription api error (status %d): %s", e.Status, e.Message)
}

// Client talks to the subscription store: a token exchange followed by
// bearer-authenticated writes, with the token cached until it expires.
type Client struct {
	cfg  Config
	http *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Subscribe writes one subscription, exchanging or reusing the bearer token
// as needed. EnterpriseID falls back to the configured default.
func (c *Client) Subscribe(ctx context.Context, sub Subscription) error {
	if !c.cfg.Configured() {
		return errors.New("subscription api not configured")
	}
	if sub.EnterpriseID == 0 {
		sub.EnterpriseID = c.cfg.EnterpriseID
	}

	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/subscribe", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	return nil
}

// bearerToken returns the cached token, exchanging a fresh one when missing
// or expired. The mutex keeps concurrent subscribers from racing a double
// exchange.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"clientId":     c.cfg.ClientID,
		"clientSecret": c.cfg.ClientSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("token exchange returned an empty token")
	}

	c.token = out.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	return c.token, nil
}

// readMessage extracts a {"message": …} body when present, else the raw text.
func readMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		return body.Message
	}
	return string(bytes.TrimSpace(raw))
}
