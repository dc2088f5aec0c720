package session

import (
	"context"
	"sync"
)

// MaxTranscriptLen caps a transcript, counted in characters.
const MaxTranscriptLen = 2000

// Store keeps one conversation transcript per user.
//
// Append is atomic per call: the read, concatenation and truncation happen
// as one step. Two messages from the same user handled concurrently still
// interleave between calls, so the later Append wins on ordering.
type Store interface {
	Get(ctx context.Context, userID string) (string, bool, error)
	Append(ctx context.Context, userID, text string) (string, error)
	Delete(ctx context.Context, userID string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// Truncate keeps the trailing max characters of s.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[len(r)-max:])
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.Mutex
	max    int
	record map[string]string
}

// NewMemoryStore creates an empty store with the default cap.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{max: MaxTranscriptLen, record: make(map[string]string)}
}

// Get returns the transcript of a user.
func (m *MemoryStore) Get(_ context.Context, userID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.record[userID]
	return v, ok, nil
}

// Append adds text to a user's transcript and returns the capped result.
func (m *MemoryStore) Append(_ context.Context, userID, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := Truncate(m.record[userID]+text, m.max)
	m.record[userID] = v
	return v, nil
}

// Delete removes a user's transcript.
func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.record, userID)
	return nil
}

// Clear removes every transcript.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = make(map[string]string)
	return nil
}

// Len counts stored transcripts.
func (m *MemoryStore) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.record), nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }
