// Package client is the client-side cache and sync layer for the catalog API.
// A Store mirrors the product list and the audit log of one session and keeps
// the mirror in step with the server after each mutation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/models"
)

// Backend is what a Store needs from the server.
type Backend interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListAuditRecords(ctx context.Context) ([]models.AuditRecord, error)
	AddProduct(ctx context.Context, fields models.ProductFields) (models.Product, error)
	UpdateProduct(ctx context.Context, id string, fields models.ProductFields) (models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// HTTPError is a non-2xx response that maps to no catalog error kind.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// API talks to the catalog HTTP API.
type API struct {
	baseURL string
	http    *http.Client
}

var _ Backend = (*API)(nil)

// NewAPI returns an API for baseURL (e.g. http://localhost:8080). A nil
// httpClient gets a client with a 15s timeout.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type envelope struct {
	Success bool              `json:"success"`
	Count   int               `json:"count"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func (a *API) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := a.call(ctx, "list products", http.MethodGet, "/api/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct fetches one product from the server, bypassing any mirror.
func (a *API) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var out models.Product
	err := a.call(ctx, "get product", http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (a *API) ListAuditRecords(ctx context.Context) ([]models.AuditRecord, error) {
	var out []models.AuditRecord
	if err := a.call(ctx, "list audit records", http.MethodGet, "/api/logs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) AddProduct(ctx context.Context, fields models.ProductFields) (models.Product, error) {
	var out models.Product
	err := a.call(ctx, "add product", http.MethodPost, "/api/products", fields, &out)
	return out, err
}

func (a *API) UpdateProduct(ctx context.Context, id string, fields models.ProductFields) (models.Product, error) {
	var out models.Product
	err := a.call(ctx, "update product", http.MethodPut, "/api/products/"+url.PathEscape(id), fields, &out)
	return out, err
}

func (a *API) DeleteProduct(ctx context.Context, id string) error {
	return a.call(ctx, "delete product", http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil)
}

// call sends payload (if any) as JSON and decodes the envelope's data into
// out (if any). Failures come back as catalog error kinds where the status
// allows it.
func (a *API) call(ctx context.Context, op, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return statusError(op, resp.StatusCode, envelope{Error: strings.TrimSpace(string(raw))})
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices || !env.Success {
		return statusError(op, resp.StatusCode, env)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: decode data: %w", op, err)
		}
	}
	return nil
}

func statusError(op string, status int, env envelope) error {
	switch {
	case status == http.StatusBadRequest && len(env.Fields) > 0:
		return apperr.NewValidation(env.Fields)
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", op, env.Error, apperr.ErrNotFound)
	case status >= http.StatusInternalServerError:
		return apperr.Storage(op, &HTTPError{StatusCode: status, Message: env.Error})
	}
	return fmt.Errorf("%s: %w", op, &HTTPError{StatusCode: status, Message: env.Error})
}
