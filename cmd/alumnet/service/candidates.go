package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	commonredis "github.com/alumnet/alumnet/common/redis"
)

// CandidateStore remembers which roster roll numbers were last offered to a
// member, for the duration of the confirmation window. A confirmation that
// arrives after the window has lapsed finds no entry and is rejected.
type CandidateStore interface {
	Put(ctx context.Context, memberID string, rollNos []string) error
	Get(ctx context.Context, memberID string) ([]string, error)
	Clear(ctx context.Context, memberID string) error
}

const candidateKeyPrefix = "verification:candidates:"

// RedisCandidateStore keeps the offered candidate sets in Redis so the
// window survives process restarts and is shared across replicas.
type RedisCandidateStore struct {
	redis *commonredis.Client
	ttl   time.Duration
}

func NewRedisCandidateStore(redis *commonredis.Client, ttl time.Duration) *RedisCandidateStore {
	return &RedisCandidateStore{redis: redis, ttl: ttl}
}

func (s *RedisCandidateStore) Put(ctx context.Context, memberID string, rollNos []string) error {
	payload, err := json.Marshal(rollNos)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}
	return s.redis.SetWithExpiry(ctx, candidateKeyPrefix+memberID, string(payload), s.ttl)
}

func (s *RedisCandidateStore) Get(ctx context.Context, memberID string) ([]string, error) {
	raw, err := s.redis.Get(ctx, candidateKeyPrefix+memberID)
	if err != nil {
		if errors.Is(err, commonredis.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var rollNos []string
	if err := json.Unmarshal([]byte(raw), &rollNos); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}
	return rollNos, nil
}

func (s *RedisCandidateStore) Clear(ctx context.Context, memberID string) error {
	return s.redis.Delete(ctx, candidateKeyPrefix+memberID)
}

// MemoryCandidateStore is the in-process fallback used when Redis is
// disabled, and by tests. Expired entries are dropped lazily on read.
type MemoryCandidateStore struct {
	mu      sync.Mutex
	entries map[string]memoryCandidateEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryCandidateEntry struct {
	rollNos   []string
	expiresAt time.Time
}

func NewMemoryCandidateStore(ttl time.Duration) *MemoryCandidateStore {
	return &MemoryCandidateStore{
		entries: make(map[string]memoryCandidateEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryCandidateStore) Put(_ context.Context, memberID string, rollNos []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[memberID] = memoryCandidateEntry{
		rollNos:   append([]string(nil), rollNos...),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryCandidateStore) Get(_ context.Context, memberID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[memberID]
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, memberID)
		return nil, nil
	}
	return append([]string(nil), entry.rollNos...), nil
}

func (s *MemoryCandidateStore) Clear(_ context.Context, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, memberID)
	return nil
}
