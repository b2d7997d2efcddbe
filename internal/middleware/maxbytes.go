package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes caps a product create or update body. Product documents
// are a handful of short fields, so 64 KiB leaves ample headroom.
const DefaultMaxBodyBytes = 64 << 10

// MaxBytes bounds request bodies on mutation routes. A declared Content-Length
// over the limit is refused with 413 before the handler runs; bodies of
// unknown length are wrapped so the decoder fails once the limit is crossed.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeFailure(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
