package sessions

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	turns     []Turn
	document  string
	expiresAt time.Time
}

// MemoryStore is the single-process implementation. A janitor sweeps
// expired sessions so the map stays bounded under sustained use.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Close stops the janitor.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

// touch returns the live entry, creating it if asked; expired entries
// count as absent.
func (s *MemoryStore) touch(sessionID string, create bool) *memoryEntry {
	now := time.Now()
	entry, ok := s.entries[sessionID]
	if ok && now.After(entry.expiresAt) {
		delete(s.entries, sessionID)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		entry = &memoryEntry{}
		s.entries[sessionID] = entry
	}
	entry.expiresAt = now.Add(s.ttl)
	return entry
}

func (s *MemoryStore) AppendTurn(_ context.Context, sessionID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.touch(sessionID, true)
	entry.turns = append(entry.turns, turn)
	return nil
}

func (s *MemoryStore) Transcript(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.touch(sessionID, false)
	if entry == nil || len(entry.turns) == 0 {
		return nil, ErrSessionNotFound
	}

	turns := make([]Turn, len(entry.turns))
	copy(turns, entry.turns)
	return turns, nil
}

func (s *MemoryStore) SetDocument(_ context.Context, sessionID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.touch(sessionID, true)
	entry.document = text
	return nil
}

func (s *MemoryStore) Document(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.touch(sessionID, false)
	if entry == nil || entry.document == "" {
		return "", ErrSessionNotFound
	}
	return entry.document, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionID)
	return nil
}
