// Package reconcile repairs audit gaps left when an audit append failed after
// the product write had already succeeded.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/crucial707/hci-catalog/internal/metrics"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/crucial707/hci-catalog/internal/repo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultGrace is how long a freshly written product is left alone, so an
// in-flight mutation can append its own record first.
const DefaultGrace = time.Minute

// Reconciler compares the product store with the audit log. It only ever
// appends audit records; it never writes products.
type Reconciler struct {
	products repo.ProductStore
	audit    repo.AuditLog
	logger   *zap.Logger

	// Grace skips products whose UpdatedAt is this recent.
	Grace time.Duration
	now   repo.Clock
}

func New(products repo.ProductStore, audit repo.AuditLog, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		products: products,
		audit:    audit,
		logger:   logger.Named("reconcile"),
		Grace:    DefaultGrace,
		now:      time.Now,
	}
}

// Run appends an Added record for every product with no audit history, and an
// Updated record for every product whose newest record is older than its last
// update or carries a stale name. Deleted products are not reconstructed.
// It returns the number of records appended.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	products, err := r.products.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile: list products: %w", err)
	}
	records, err := r.audit.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile: list audit records: %w", err)
	}

	// records is newest first, so the first hit per product is its latest.
	latest := make(map[string]models.AuditRecord, len(records))
	for _, rec := range records {
		if _, ok := latest[rec.EntityID]; !ok {
			latest[rec.EntityID] = rec
		}
	}

	cutoff := r.now().Add(-r.Grace)
	repaired := map[models.ActionType]int{}
	for _, p := range products {
		if p.UpdatedAt.After(cutoff) {
			continue
		}
		action, ok := repairFor(p, latest)
		if !ok {
			continue
		}
		if _, err := r.audit.Append(ctx, action, p.ID, p.Name); err != nil {
			r.record(repaired)
			return total(repaired), fmt.Errorf("reconcile: append %s for %s: %w", action, p.ID, err)
		}
		repaired[action]++
		r.logger.Info("audit record restored",
			zap.String("action", string(action)),
			zap.String("product_id", p.ID),
			zap.String("product_name", p.Name))
	}

	r.record(repaired)
	return total(repaired), nil
}

func repairFor(p models.Product, latest map[string]models.AuditRecord) (models.ActionType, bool) {
	rec, ok := latest[p.ID]
	if !ok {
		return models.ActionAdded, true
	}
	if rec.Timestamp.Before(p.UpdatedAt) || rec.EntityName != p.Name {
		return models.ActionUpdated, true
	}
	return "", false
}

func (r *Reconciler) record(repaired map[models.ActionType]int) {
	for action, n := range repaired {
		metrics.AddReconcileRepairs(string(action), n)
	}
}

func total(repaired map[models.ActionType]int) int {
	n := 0
	for _, c := range repaired {
		n += c
	}
	return n
}

// Schedule runs r on the cron expression spec until ctx is done. An invalid
// expression is returned before anything is started.
func Schedule(ctx context.Context, spec string, r *Reconciler) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := r.Run(ctx)
		if err != nil {
			r.logger.Error("reconcile run failed", zap.Int("repaired", n), zap.Error(err))
			return
		}
		r.logger.Debug("reconcile run finished", zap.Int("repaired", n))
	})
	if err != nil {
		return fmt.Errorf("reconcile: invalid cron expression %q: %w", spec, err)
	}

	r.logger.Info("reconcile scheduled", zap.String("cron", spec))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
