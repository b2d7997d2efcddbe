package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/catalog"
	"github.com/crucial707/hci-catalog/internal/handlers"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/crucial707/hci-catalog/internal/repo"
	"github.com/go-chi/chi/v5"
)

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func widget() models.ProductFields {
	return models.ProductFields{Name: strPtr("Widget"), Price: floatPtr(9.99), Stock: intPtr(5), Category: strPtr("Tools")}
}

// catalogServer runs the product and audit handlers on memory stores.
func catalogServer(t *testing.T) (*httptest.Server, *repo.MemoryAuditRepo) {
	t.Helper()
	audit := repo.NewMemoryAuditRepo(nil)
	return catalogServerWithAudit(t, audit), audit
}

func catalogServerWithAudit(t *testing.T, audit repo.AuditLog) *httptest.Server {
	t.Helper()
	products := repo.NewMemoryProductRepo(nil)
	query := catalog.NewQuery(products, audit)
	ph := &handlers.ProductHandler{Coordinator: catalog.NewCoordinator(products, audit, nil), Query: query}
	ah := &handlers.AuditHandler{Query: query}

	r := chi.NewRouter()
	r.Get("/api/products", ph.ListProducts)
	r.Get("/api/products/{id}", ph.GetProduct)
	r.Post("/api/products", ph.CreateProduct)
	r.Put("/api/products/{id}", ph.UpdateProduct)
	r.Delete("/api/products/{id}", ph.DeleteProduct)
	r.Get("/api/logs", ah.ListAudit)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// unwritableAudit fails every append with a storage error.
type unwritableAudit struct {
	repo.AuditLog
}

func (unwritableAudit) Append(context.Context, models.ActionType, string, string) (models.AuditRecord, error) {
	return models.AuditRecord{}, apperr.Storage("append audit record", errors.New("disk full"))
}

// recorder collects notifications.
type recorder struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (r *recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *recorder) Failure(msg string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, msg)
}

// stubBackend wraps a real backend and injects failures.
type stubBackend struct {
	Backend
	failAuditList error
	failAdd       error
	auditCalls    int
	mu            sync.Mutex
}

func (b *stubBackend) ListAuditRecords(ctx context.Context) ([]models.AuditRecord, error) {
	b.mu.Lock()
	b.auditCalls++
	err := b.failAuditList
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return b.Backend.ListAuditRecords(ctx)
}

func (b *stubBackend) AddProduct(ctx context.Context, f models.ProductFields) (models.Product, error) {
	if b.failAdd != nil {
		return models.Product{}, b.failAdd
	}
	return b.Backend.AddProduct(ctx, f)
}

func (b *stubBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.auditCalls
}
