package rtc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/connorholly11/purpose-voice/internal/shared"
)

const maxAnswerSize = 64 * 1024

// Negotiator exchanges session descriptions with the remote speech service:
// the local offer goes out as the POST body with the ephemeral credential as a
// bearer token, and the response body is the remote answer.
type Negotiator struct {
	url    string
	client *http.Client
}

func NewNegotiator(url string, client *http.Client) *Negotiator {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Negotiator{
		url:    url,
		client: client,
	}
}

func (n *Negotiator) Exchange(ctx context.Context, offerSDP, secret string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, strings.NewReader(offerSDP))
	if err != nil {
		return "", shared.NegotiationError(err)
	}
	req.Header.Set("Content-Type", "application/sdp")
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", shared.NegotiationError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerSize))
	if err != nil {
		return "", shared.NegotiationError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", shared.NegotiationError(fmt.Errorf("remote returned %d", resp.StatusCode))
	}

	answer := string(body)
	if answer == "" {
		return "", shared.NegotiationError(fmt.Errorf("remote returned empty answer"))
	}

	return answer, nil
}
