// internal/session/store.go

// Package session persists in-progress drafts in Redis, keyed by
// application id. The licensing service owns the durable record; the store
// only carries what the wizard has not flushed upstream yet, which is why
// entries expire instead of living forever.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	stderrors "formation-wizard/internal/common/errors"
	"formation-wizard/internal/common/logger"
	"formation-wizard/internal/wizard/draft"
)

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(client *redis.Client, prefix string, ttl time.Duration, log logger.Logger) *Store {
	return &Store{client: client, prefix: prefix, ttl: ttl, logger: log}
}

func (s *Store) key(applicationID string) string {
	return s.prefix + applicationID
}

// Save writes the draft and refreshes its TTL. Every successful request
// touching a draft goes through here, so an active application never
// expires mid-flow.
func (s *Store) Save(ctx context.Context, d *draft.Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, s.key(d.ApplicationID), raw, s.ttl).Err(); err != nil {
		s.logger.WithError(err).Error("draft save failed", map[string]interface{}{
			"application_id": d.ApplicationID,
		})
		return fmt.Errorf("store draft: %w", err)
	}
	return nil
}

// Load fetches a draft. A missing key returns a SESSION_NOT_FOUND error the
// API layer maps to 404; the caller then falls back to the resume flow.
func (s *Store) Load(ctx context.Context, applicationID string) (*draft.Draft, error) {
	raw, err := s.client.Get(ctx, s.key(applicationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, stderrors.NewSessionNotFoundError(applicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	var d draft.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

// Delete drops the draft, typically after a successful submission.
func (s *Store) Delete(ctx context.Context, applicationID string) error {
	return s.client.Del(ctx, s.key(applicationID)).Err()
}
