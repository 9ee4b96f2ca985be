package memory

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCheckpointNotFound is returned by Load when no checkpoint exists for a
// session.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// ChatMessage is one entry of a checkpoint's short-term history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Checkpoint is the per-session short-term state carried between turns.
// Exactly one exists per session; Save overwrites it.
type Checkpoint struct {
	SessionID  string        `json:"session_id"`
	TicketID   string        `json:"ticket_id,omitempty"`
	CustomerID string        `json:"customer_id,omitempty"`
	NextAgent  string        `json:"next_agent,omitempty"`
	Messages   []ChatMessage `json:"messages,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CheckpointStore holds per-session checkpoints.
type CheckpointStore interface {
	// Save overwrites the session's checkpoint.
	Save(ctx context.Context, cp *Checkpoint) error

	// Load returns the session's checkpoint or ErrCheckpointNotFound.
	Load(ctx context.Context, sessionID string) (*Checkpoint, error)

	// Delete removes the session's checkpoint. Deleting a missing
	// checkpoint is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Sweep removes checkpoints idle longer than ttl and returns how many
	// were removed. Backends with native expiry may return 0.
	Sweep(ctx context.Context, ttl time.Duration) (int, error)

	Close() error
}

// MemoryCheckpointStore is an in-process CheckpointStore.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*Checkpoint
}

// NewMemoryCheckpointStore creates an empty in-process checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{checkpoints: make(map[string]*Checkpoint)}
}

func (m *MemoryCheckpointStore) Save(ctx context.Context, cp *Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := *cp
	saved.Messages = append([]ChatMessage(nil), cp.Messages...)
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = time.Now().UTC()
	}
	m.checkpoints[cp.SessionID] = &saved
	return nil
}

func (m *MemoryCheckpointStore) Load(ctx context.Context, sessionID string) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.checkpoints[sessionID]
	if !ok {
		return nil, ErrCheckpointNotFound
	}

	out := *cp
	out.Messages = append([]ChatMessage(nil), cp.Messages...)
	return &out, nil
}

func (m *MemoryCheckpointStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checkpoints, sessionID)
	return nil
}

func (m *MemoryCheckpointStore) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-ttl)
	removed := 0
	for id, cp := range m.checkpoints {
		if cp.UpdatedAt.Before(cutoff) {
			delete(m.checkpoints, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryCheckpointStore) Close() error {
	return nil
}
