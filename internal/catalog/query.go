package catalog

import (
	"context"

	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/crucial707/hci-catalog/internal/repo"
)

// Query is the read-only side of the catalog. It never caches: every call
// reads the stores.
type Query struct {
	products repo.ProductStore
	audit    repo.AuditLog
}

func NewQuery(products repo.ProductStore, audit repo.AuditLog) *Query {
	return &Query{products: products, audit: audit}
}

// ListProducts returns all products in store order.
func (q *Query) ListProducts(ctx context.Context) ([]models.Product, error) {
	return q.products.List(ctx)
}

// GetProduct returns one product or apperr.ErrNotFound.
func (q *Query) GetProduct(ctx context.Context, id string) (models.Product, error) {
	return q.products.Get(ctx, id)
}

// ListAuditRecords returns the audit trail, newest first.
func (q *Query) ListAuditRecords(ctx context.Context) ([]models.AuditRecord, error) {
	return q.audit.List(ctx)
}
