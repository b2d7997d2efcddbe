package handlers

import (
	"errors"
	"net/http"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"go.uber.org/zap"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONError sends {"success":false,"error":message}.
func JSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": message})
}

// JSONValidationError sends a failure envelope with "fields" for field-level details.
// status is typically http.StatusBadRequest (400).
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	out := map[string]interface{}{"success": false, "error": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	writeJSON(w, status, out)
}

// writeError maps the catalog error kinds onto status codes. Storage failures
// are logged with the request path and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, notFound string) {
	if ve, ok := apperr.IsValidation(err); ok {
		JSONValidationError(w, "validation failed", ve.Fields, http.StatusBadRequest)
		return
	}
	if errors.Is(err, apperr.ErrNotFound) {
		JSONError(w, notFound, http.StatusNotFound)
		return
	}
	if logger != nil {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
}
