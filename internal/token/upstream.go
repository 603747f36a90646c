package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/connorholly11/purpose-voice/internal/shared"
	"github.com/connorholly11/purpose-voice/internal/transport"
)

// Upstream mints an ephemeral realtime credential from the speech provider.
type Upstream interface {
	CreateSession(ctx context.Context, voice string) (transport.Credential, error)
}

// RealtimeUpstream calls the provider's session-minting endpoint with the
// long-lived server API key. The key never leaves this service; clients only
// ever see the ephemeral secret.
type RealtimeUpstream struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type UpstreamConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

func NewRealtimeUpstream(cfg UpstreamConfig) *RealtimeUpstream {
	return &RealtimeUpstream{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type upstreamRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
}

type upstreamResponse struct {
	ID           string `json:"id"`
	ClientSecret struct {
		Value string `json:"value"`
	} `json:"client_secret"`
}

func (u *RealtimeUpstream) CreateSession(ctx context.Context, voice string) (transport.Credential, error) {
	body, err := json.Marshal(upstreamRequest{Model: u.model, Voice: voice})
	if err != nil {
		return transport.Credential{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return transport.Credential{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+u.apiKey)

	resp, err := u.client.Do(req)
	if err != nil {
		return transport.Credential{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return transport.Credential{}, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	var parsed upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return transport.Credential{}, fmt.Errorf("invalid upstream response: %w", err)
	}

	sessionID := parsed.ID
	if sessionID == "" {
		sessionID = shared.NewID("sess_")
	}

	return transport.Credential{
		Secret:    parsed.ClientSecret.Value,
		SessionID: sessionID,
	}, nil
}
