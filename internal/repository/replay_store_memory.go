package repository

import (
	"context"
	"sync"
	"time"
)

type replayEntry struct {
	payload   []byte
	expiresAt time.Time
}

func (e replayEntry) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// replaySweepInterval bounds how often Reserve scans for expired entries.
const replaySweepInterval = time.Minute

type memoryReplayStore struct {
	mu        sync.Mutex
	entries   map[string]replayEntry
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryReplayStore() ReplayStore {
	return &memoryReplayStore{
		entries: make(map[string]replayEntry),
		now:     time.Now,
	}
}

func (s *memoryReplayStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	if entry, ok := s.entries[key]; ok && !entry.isExpired(now) {
		return false, nil
	}
	s.entries[key] = replayEntry{expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *memoryReplayStore) Complete(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = replayEntry{payload: payload, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryReplayStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if entry.isExpired(s.now()) {
		delete(s.entries, key)
		return nil, nil
	}
	return entry.payload, nil
}

func (s *memoryReplayStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// sweep drops expired entries. Callers hold mu.
func (s *memoryReplayStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < replaySweepInterval {
		return
	}
	s.lastSweep = now
	for key, entry := range s.entries {
		if entry.isExpired(now) {
			delete(s.entries, key)
		}
	}
}
