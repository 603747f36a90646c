package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/connorholly11/purpose-voice/internal/transport"
)

// Client is the session-side view of the token provider: one POST per
// connection attempt, returning a short-lived secret and a session id.
type Client struct {
	url    string
	client *http.Client
}

type ClientConfig struct {
	URL        string
	HTTPClient *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		url:    cfg.URL,
		client: client,
	}
}

type mintRequest struct {
	Voice string `json:"voice"`
}

type mintResponse struct {
	ClientSecret struct {
		Value string `json:"value"`
	} `json:"client_secret"`
	SessionID string `json:"session_id"`
}

func (c *Client) Mint(ctx context.Context, voice string) (transport.Credential, error) {
	body, err := json.Marshal(mintRequest{Voice: voice})
	if err != nil {
		return transport.Credential{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return transport.Credential{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return transport.Credential{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return transport.Credential{}, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var parsed mintResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return transport.Credential{}, fmt.Errorf("invalid token response: %w", err)
	}

	if parsed.ClientSecret.Value == "" {
		return transport.Credential{}, fmt.Errorf("token response missing client secret")
	}

	return transport.Credential{
		Secret:    parsed.ClientSecret.Value,
		SessionID: parsed.SessionID,
	}, nil
}
