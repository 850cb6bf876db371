package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
	"github.com/pesio-ai/be-hr-recruitment/internal/workflow"
)

// MemoryStore is an in-process EntityStore. Entities are copied on the way in
// and out so callers never share chain slices with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	entities map[string]workflow.Entity
	now      func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entities: make(map[string]workflow.Entity),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, e *workflow.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, exists := s.entities[e.ID]; exists {
		return errors.New(errors.ErrCodeConflict, "entity already exists: "+e.ID)
	}

	now := s.now()
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now
	s.entities[e.ID] = e.Clone()
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*workflow.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	if !ok {
		return nil, errors.NotFound("entity", id)
	}
	out := e.Clone()
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, e *workflow.Entity, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entities[e.ID]
	if !ok {
		return errors.NotFound("entity", e.ID)
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}

	e.Version = expectedVersion + 1
	e.CreatedAt = current.CreatedAt
	e.UpdatedAt = s.now()
	s.entities[e.ID] = e.Clone()
	return nil
}

func (s *MemoryStore) List(ctx context.Context, filter EntityFilter) ([]*workflow.Entity, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*workflow.Entity
	for _, e := range s.entities {
		if !matches(&e, filter) {
			continue
		}
		c := e.Clone()
		all = append(all, &c)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			return nil, total, nil
		}
		all = all[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

// MemoryAuditRepository keeps audit entries in process.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []*AuditEntry
}

// NewMemoryAuditRepository creates an empty audit log.
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Append(ctx context.Context, entry *AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.PerformedAt.IsZero() {
		entry.PerformedAt = time.Now()
	}
	c := *entry
	r.entries = append(r.entries, &c)
	return nil
}

func (r *MemoryAuditRepository) GetByEntityID(ctx context.Context, entityID string) ([]*AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*AuditEntry
	for _, e := range r.entries {
		if e.EntityID == entityID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}
