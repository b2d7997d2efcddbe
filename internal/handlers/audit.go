package handlers

import (
	"net/http"

	"github.com/crucial707/hci-catalog/internal/catalog"
	"go.uber.org/zap"
)

// AuditHandler serves the audit log endpoint.
type AuditHandler struct {
	Query  *catalog.Query
	Logger *zap.Logger
}

// ListAudit returns every audit record, newest first.
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	records, err := h.Query.ListAuditRecords(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err, "audit log not found")
		return
	}
	JSONList(w, len(records), records)
}
