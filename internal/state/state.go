package state

import (
	"catalog/storefront/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SelectionStore keeps the drill-down position of each browser session.
type SelectionStore interface {
	GetSelection(ctx context.Context, sessionID string) (domain.Position, error)
	SetSelection(ctx context.Context, sessionID string, pos domain.Position) error
}

type redisSelectionStore struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

func NewRedisSelectionStore(redisClient *redis.Client, ttl time.Duration) SelectionStore {
	return &redisSelectionStore{
		redisClient: redisClient,
		keyPrefix:   "storefront:selection:",
		ttl:         ttl,
	}
}

func (s *redisSelectionStore) GetSelection(ctx context.Context, sessionID string) (domain.Position, error) {
	val, err := s.redisClient.Get(ctx, s.keyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.EmptyPosition(), nil // Nothing selected yet
		}
		return domain.EmptyPosition(), fmt.Errorf("failed to get selection for session %s: %w", sessionID, err)
	}

	var pos domain.Position
	if err := json.Unmarshal([]byte(val), &pos); err != nil {
		return domain.EmptyPosition(), fmt.Errorf("failed to parse selection for session %s: %w", sessionID, err)
	}

	return pos, nil
}

func (s *redisSelectionStore) SetSelection(ctx context.Context, sessionID string, pos domain.Position) error {
	payload, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}

	if err := s.redisClient.Set(ctx, s.keyPrefix+sessionID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set selection for session %s: %w", sessionID, err)
	}
	return nil
}

type memorySelectionStore struct {
	mutex      sync.RWMutex
	selections map[string]memoryEntry
	ttl        time.Duration
	now        func() time.Time
}

type memoryEntry struct {
	pos       domain.Position
	updatedAt time.Time
}

// NewMemorySelectionStore keeps selections in process memory. Used when no
// Redis is configured and by the terminal browser. Entries not written for
// longer than ttl are dropped; a ttl of zero keeps them forever.
func NewMemorySelectionStore(ttl time.Duration) SelectionStore {
	return &memorySelectionStore{
		selections: make(map[string]memoryEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *memorySelectionStore) GetSelection(_ context.Context, sessionID string) (domain.Position, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.selections[sessionID]
	if !ok || s.expired(entry, s.now()) {
		return domain.EmptyPosition(), nil
	}
	return entry.pos, nil
}

func (s *memorySelectionStore) SetSelection(_ context.Context, sessionID string, pos domain.Position) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	for id, entry := range s.selections {
		if s.expired(entry, now) {
			delete(s.selections, id)
		}
	}

	s.selections[sessionID] = memoryEntry{pos: pos, updatedAt: now}
	return nil
}

func (s *memorySelectionStore) expired(entry memoryEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.updatedAt) > s.ttl
}
