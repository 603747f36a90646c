package token

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IssueLog records which session ids this service has minted, for correlation
// against transport logs. Entries expire with the credential.
type IssueLog interface {
	RecordIssued(ctx context.Context, sessionID, voice string) error
	WasIssued(ctx context.Context, sessionID string) (bool, error)
}

type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{
		redis: client,
		ttl:   ttl,
	}
}

func issueKey(sessionID string) string {
	return "rtsession:" + sessionID
}

func (s *Store) RecordIssued(ctx context.Context, sessionID, voice string) error {
	return s.redis.Set(ctx, issueKey(sessionID), voice, s.ttl).Err()
}

func (s *Store) WasIssued(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.redis.Exists(ctx, issueKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
