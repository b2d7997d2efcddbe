package repo

import (
	"context"

	"github.com/crucial707/hci-catalog/internal/models"
)

// ProductStore is the durable keyed collection of catalog products.
// Implementations guarantee per-key atomicity of Create, Update and Delete and
// know nothing about the audit log.
type ProductStore interface {
	// Create validates fields and stores a new product with a generated id.
	Create(ctx context.Context, fields models.ProductFields) (models.Product, error)
	// Get returns apperr.ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (models.Product, error)
	// Update applies the present fields and refreshes UpdatedAt.
	Update(ctx context.Context, id string, fields models.ProductFields) (models.Product, error)
	// Delete removes the product and returns the row as it was before removal.
	Delete(ctx context.Context, id string) (models.Product, error)
	// List returns every product in no particular order.
	List(ctx context.Context) ([]models.Product, error)
}

// AuditLog is the append-only sequence of audit records.
type AuditLog interface {
	Append(ctx context.Context, action models.ActionType, entityID, entityName string) (models.AuditRecord, error)
	// List returns records newest first; equal timestamps are ordered by
	// descending insertion order.
	List(ctx context.Context) ([]models.AuditRecord, error)
}
