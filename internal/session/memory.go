package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state   State
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Used when Redis is not
// available and in tests.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, data: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Load(_ context.Context, token string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[token]
	if !ok {
		return State{}, ErrNotFound
	}
	if m.ttl > 0 && m.now().After(e.expires) {
		delete(m.data, token)
		return State{}, ErrNotFound
	}
	return e.state, nil
}

func (m *MemoryStore) Save(_ context.Context, token string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[token] = memoryEntry{state: state, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Destroy(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, token)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// PurgeExpired drops sessions that expired before now and returns how many
// were removed.
func (m *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	if m.ttl <= 0 {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for tok, e := range m.data {
		if now.After(e.expires) {
			delete(m.data, tok)
			n++
		}
	}
	return n, nil
}
