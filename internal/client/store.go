package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/crucial707/hci-catalog/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("client: store closed")
	// ErrAuditStale marks a mutation that the server confirmed, and the
	// product mirror applied, but whose audit re-fetch failed.
	ErrAuditStale = errors.New("client: audit log not refreshed")
)

// Store is the per-session mirror of the catalog. It applies only
// server-confirmed results: the product mirror is updated from mutation
// responses and the audit mirror is always replaced by a full re-fetch.
type Store struct {
	backend  Backend
	notifier Notifier
	logger   *zap.Logger

	mu       sync.RWMutex
	products []models.Product
	records  []models.AuditRecord
	loading  int
	// initial keeps Loading true from construction until the first Load ends.
	initial bool
	closed  bool

	// auditIssued and auditApplied order concurrent audit re-fetches so an
	// older response never replaces a newer one.
	auditIssued  uint64
	auditApplied uint64
}

// NewStore starts a session against backend. Nil notifier and logger are
// replaced with no-ops.
func NewStore(backend Backend, notifier Notifier, logger *zap.Logger) *Store {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend:  backend,
		notifier: notifier,
		logger:   logger.Named("client"),
		products: []models.Product{},
		records:  []models.AuditRecord{},
		loading:  1,
		initial:  true,
	}
}

// Load fetches products and audit records in parallel and replaces both
// mirrors. On failure neither mirror changes.
func (s *Store) Load(ctx context.Context) error {
	if err := s.begin(true); err != nil {
		return err
	}
	defer s.end()

	var (
		products []models.Product
		records  []models.AuditRecord
	)
	gen := s.issueAudit()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.backend.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.backend.ListAuditRecords(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("initial load failed", zap.Error(err))
		s.notifier.Failure("Failed to fetch data", err)
		return err
	}

	s.mu.Lock()
	if products == nil {
		products = []models.Product{}
	}
	s.products = products
	s.applyAuditLocked(gen, records)
	s.mu.Unlock()

	s.logger.Debug("loaded", zap.Int("products", len(products)), zap.Int("audit_records", len(records)))
	return nil
}

// AddProduct creates a product on the server and appends it to the mirror.
func (s *Store) AddProduct(ctx context.Context, fields models.ProductFields) (models.Product, error) {
	if err := s.begin(false); err != nil {
		return models.Product{}, err
	}
	defer s.end()

	p, err := s.backend.AddProduct(ctx, fields)
	if err != nil {
		s.notifier.Failure("Failed to add product", err)
		return models.Product{}, err
	}

	s.mu.Lock()
	s.products = append(s.products, p)
	s.mu.Unlock()

	if err := s.refreshAudit(ctx); err != nil {
		return p, err
	}
	s.notifier.Success(fmt.Sprintf(`Product "%s" added successfully`, p.Name))
	return p, nil
}

// UpdateProduct updates a product on the server and replaces it in the mirror.
func (s *Store) UpdateProduct(ctx context.Context, id string, fields models.ProductFields) (models.Product, error) {
	if err := s.begin(false); err != nil {
		return models.Product{}, err
	}
	defer s.end()

	p, err := s.backend.UpdateProduct(ctx, id, fields)
	if err != nil {
		s.notifier.Failure("Failed to update product", err)
		return models.Product{}, err
	}

	s.mu.Lock()
	replaced := false
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		s.products = append(s.products, p)
	}
	s.mu.Unlock()

	if err := s.refreshAudit(ctx); err != nil {
		return p, err
	}
	s.notifier.Success(fmt.Sprintf(`Product "%s" updated successfully`, p.Name))
	return p, nil
}

// DeleteProduct deletes a product on the server and drops it from the mirror.
// The server decides whether id exists; the mirror is not consulted first.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if err := s.begin(false); err != nil {
		return err
	}
	defer s.end()

	name := id
	if p, ok := s.Product(id); ok {
		name = p.Name
	}

	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		s.notifier.Failure("Failed to delete product", err)
		return err
	}

	s.mu.Lock()
	kept := s.products[:0:0]
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
	s.mu.Unlock()

	if err := s.refreshAudit(ctx); err != nil {
		return err
	}
	s.notifier.Success(fmt.Sprintf(`Product "%s" deleted successfully`, name))
	return nil
}

// Products returns a copy of the product mirror.
func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// AuditRecords returns a copy of the audit mirror, newest first.
func (s *Store) AuditRecords() []models.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AuditRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Product looks id up in the mirror.
func (s *Store) Product(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Loading reports whether a load or mutation is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Close ends the session and drops both mirrors.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.products = nil
	s.records = nil
}

func (s *Store) begin(load bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if load && s.initial {
		s.initial = false
		return nil
	}
	s.loading++
	return nil
}

func (s *Store) end() {
	s.mu.Lock()
	if s.loading > 0 {
		s.loading--
	}
	s.mu.Unlock()
}

func (s *Store) issueAudit() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditIssued++
	return s.auditIssued
}

// applyAuditLocked installs records fetched by request gen unless a later
// request has already been applied.
func (s *Store) applyAuditLocked(gen uint64, records []models.AuditRecord) {
	if s.closed || gen < s.auditApplied {
		return
	}
	if records == nil {
		records = []models.AuditRecord{}
	}
	s.auditApplied = gen
	s.records = records
}

// refreshAudit replaces the audit mirror with the server's full list. The
// product mirror change that preceded it is kept either way.
func (s *Store) refreshAudit(ctx context.Context) error {
	gen := s.issueAudit()
	records, err := s.backend.ListAuditRecords(ctx)
	if err != nil {
		s.logger.Warn("audit refresh failed after confirmed mutation", zap.Error(err))
		s.notifier.Failure("Failed to refresh audit log", err)
		return fmt.Errorf("%w: %w", ErrAuditStale, err)
	}

	s.mu.Lock()
	s.applyAuditLocked(gen, records)
	s.mu.Unlock()
	return nil
}
