// Package catalog holds the mutation coordinator and the read-only query
// service over the product store and the audit log.
//
// Every mutation is a two-step, non-transactional sequence: the product write
// completes first, then the audit record is appended. A failed product write
// never produces an audit record. A failed audit append after a successful
// product write is returned to the caller as a storage failure, but the
// product write is not undone; the reconcile package repairs such gaps.
package catalog

import (
	"context"
	"errors"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/metrics"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/crucial707/hci-catalog/internal/repo"
	"github.com/crucial707/hci-catalog/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Coordinator sequences each product write with its audit append. It holds
// no lock across the two writes; concurrent mutations of the same product
// race at the store and their audit records land in store-commit order.
type Coordinator struct {
	products repo.ProductStore
	audit    repo.AuditLog
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewCoordinator returns a Coordinator. A nil logger discards log output.
func NewCoordinator(products repo.ProductStore, audit repo.AuditLog, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		products: products,
		audit:    audit,
		logger:   logger.Named("catalog"),
		tracer:   tracing.Tracer("github.com/crucial707/hci-catalog/internal/catalog"),
	}
}

// AddProduct creates a product and records an Added entry for it.
func (c *Coordinator) AddProduct(ctx context.Context, fields models.ProductFields) (models.Product, error) {
	ctx, span := c.start(ctx, "catalog.AddProduct")
	defer span.End()

	p, err := c.products.Create(ctx, fields)
	if err != nil {
		return models.Product{}, c.fail(span, models.ActionAdded, err)
	}

	if err := c.appendAudit(ctx, span, models.ActionAdded, p.ID, p.Name); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// UpdateProduct applies fields to an existing product and records an Updated
// entry carrying the name after the update.
func (c *Coordinator) UpdateProduct(ctx context.Context, id string, fields models.ProductFields) (models.Product, error) {
	ctx, span := c.start(ctx, "catalog.UpdateProduct", attribute.String("product.id", id))
	defer span.End()

	if _, err := c.products.Get(ctx, id); err != nil {
		return models.Product{}, c.fail(span, models.ActionUpdated, err)
	}

	p, err := c.products.Update(ctx, id, fields)
	if err != nil {
		return models.Product{}, c.fail(span, models.ActionUpdated, err)
	}

	if err := c.appendAudit(ctx, span, models.ActionUpdated, p.ID, p.Name); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// DeleteProduct removes a product and records a Deleted entry carrying the
// name it had just before removal.
func (c *Coordinator) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := c.start(ctx, "catalog.DeleteProduct", attribute.String("product.id", id))
	defer span.End()

	if _, err := c.products.Get(ctx, id); err != nil {
		return c.fail(span, models.ActionDeleted, err)
	}

	removed, err := c.products.Delete(ctx, id)
	if err != nil {
		return c.fail(span, models.ActionDeleted, err)
	}

	return c.appendAudit(ctx, span, models.ActionDeleted, removed.ID, removed.Name)
}

// start detaches ctx from the caller's cancellation: once a mutation begins,
// both writes run to completion even if the client goes away.
func (c *Coordinator) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return c.tracer.Start(context.WithoutCancel(ctx), name, trace.WithAttributes(attrs...))
}

// appendAudit records the entry for a product write that already committed.
// A failure is returned so the call fails, while the product write stands.
func (c *Coordinator) appendAudit(ctx context.Context, span trace.Span, action models.ActionType, id, name string) error {
	rec, err := c.audit.Append(ctx, action, id, name)
	if err != nil {
		metrics.IncAuditAppendFailures(string(action))
		metrics.RecordMutation(string(action), "audit_lost")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("audit append failed after product write",
			zap.String("action", string(action)),
			zap.String("product_id", id),
			zap.String("product_name", name),
			zap.Error(err))
		return err
	}
	metrics.RecordMutation(string(action), "ok")
	span.SetAttributes(attribute.String("audit.id", rec.ID))
	c.logger.Debug("mutation recorded",
		zap.String("action", string(action)),
		zap.String("product_id", id),
		zap.String("audit_id", rec.ID))
	return nil
}

func (c *Coordinator) fail(span trace.Span, action models.ActionType, err error) error {
	outcome := outcomeOf(err)
	metrics.RecordMutation(string(action), outcome)
	if outcome == "error" {
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("product write failed",
			zap.String("action", string(action)),
			zap.Error(err))
	}
	return err
}

func outcomeOf(err error) string {
	if errors.Is(err, apperr.ErrNotFound) {
		return "not_found"
	}
	if _, ok := apperr.IsValidation(err); ok {
		return "invalid"
	}
	return "error"
}
