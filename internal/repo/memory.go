package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/google/uuid"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// MemoryProductRepo is an in-process ProductStore used by the memory driver
// and by tests. A single mutex serializes writes, which gives per-key
// atomicity for free.
type MemoryProductRepo struct {
	mu    sync.RWMutex
	items map[string]models.Product
	now   Clock
}

// NewMemoryProductRepo returns an empty store. A nil clock uses time.Now.
func NewMemoryProductRepo(now Clock) *MemoryProductRepo {
	if now == nil {
		now = time.Now
	}
	return &MemoryProductRepo{items: make(map[string]models.Product), now: now}
}

func (r *MemoryProductRepo) Create(_ context.Context, fields models.ProductFields) (models.Product, error) {
	fields, err := ValidateCreate(fields)
	if err != nil {
		return models.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	p := models.Product{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	fields.Apply(&p)
	r.items[p.ID] = p
	return p, nil
}

func (r *MemoryProductRepo) Get(_ context.Context, id string) (models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return models.Product{}, apperr.ErrNotFound
	}
	return p, nil
}

func (r *MemoryProductRepo) Update(_ context.Context, id string, fields models.ProductFields) (models.Product, error) {
	fields, err := ValidatePatch(fields)
	if err != nil {
		return models.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return models.Product{}, apperr.ErrNotFound
	}
	fields.Apply(&p)
	now := r.now().UTC()
	if !now.After(p.UpdatedAt) {
		now = p.UpdatedAt.Add(time.Microsecond)
	}
	p.UpdatedAt = now
	r.items[id] = p
	return p, nil
}

func (r *MemoryProductRepo) Delete(_ context.Context, id string) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return models.Product{}, apperr.ErrNotFound
	}
	delete(r.items, id)
	return p, nil
}

func (r *MemoryProductRepo) List(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	return out, nil
}

// MemoryAuditRepo is an in-process AuditLog.
type MemoryAuditRepo struct {
	mu      sync.RWMutex
	records []models.AuditRecord
	seq     int64
	now     Clock
}

// NewMemoryAuditRepo returns an empty log. A nil clock uses time.Now.
func NewMemoryAuditRepo(now Clock) *MemoryAuditRepo {
	if now == nil {
		now = time.Now
	}
	return &MemoryAuditRepo{now: now}
}

func (r *MemoryAuditRepo) Append(_ context.Context, action models.ActionType, entityID, entityName string) (models.AuditRecord, error) {
	if !action.Valid() {
		return models.AuditRecord{}, fmt.Errorf("audit append: unknown action %q", action)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	rec := models.AuditRecord{
		ID:         uuid.NewString(),
		ActionType: action,
		EntityID:   entityID,
		EntityName: entityName,
		Timestamp:  r.now().UTC(),
		Seq:        r.seq,
	}
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *MemoryAuditRepo) List(_ context.Context) ([]models.AuditRecord, error) {
	r.mu.RLock()
	out := make([]models.AuditRecord, len(r.records))
	copy(out, r.records)
	r.mu.RUnlock()

	SortNewestFirst(out)
	return out, nil
}

// SortNewestFirst orders records by descending timestamp, breaking ties by
// descending insertion sequence.
func SortNewestFirst(records []models.AuditRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].Seq > records[j].Seq
	})
}
