package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

type memorySessionEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemorySessionRepository keeps admin sessions in process memory. Records
// are stored encoded so callers never share state with the store.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]memorySessionEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionRepository constructs an in-memory session store.
func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]memorySessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores a new session.
func (r *MemorySessionRepository) Create(ctx context.Context, session *models.AdminSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = memorySessionEntry{payload: payload, expiresAt: r.expiry()}
	return nil
}

// Get loads a session copy.
func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*models.AdminSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(id)
}

// Update applies fn to the stored session under the store lock. The
// session is written back only when fn succeeds.
func (r *MemorySessionRepository) Update(ctx context.Context, id string, fn func(*models.AdminSession) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.load(id)
	if err != nil {
		return err
	}
	if err := fn(session); err != nil {
		return err
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", id, err)
	}
	entry := r.sessions[id]
	entry.payload = payload
	r.sessions[id] = entry
	return nil
}

// Delete removes the session and everything it holds.
func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepository) load(id string) (*models.AdminSession, error) {
	entry, ok := r.sessions[id]
	if !ok {
		return nil, appErrors.ErrSessionNotFound
	}
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		delete(r.sessions, id)
		return nil, appErrors.ErrSessionNotFound
	}
	var session models.AdminSession
	if err := json.Unmarshal(entry.payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	session.EnsureMaps()
	return &session, nil
}

func (r *MemorySessionRepository) expiry() time.Time {
	if r.ttl <= 0 {
		return time.Time{}
	}
	return r.now().Add(r.ttl)
}
