package handlers

import (
	"net/http"

	"github.com/crucial707/hci-catalog/internal/catalog"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const msgProductNotFound = "Product not found"

// ProductHandler serves /api/products. Reads go to Query; writes go through
// the Coordinator so every successful write is audited.
type ProductHandler struct {
	Coordinator *catalog.Coordinator
	Query       *catalog.Query
	Logger      *zap.Logger
}

//
// ==========================
// List Products
// ==========================
//

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Query.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err, msgProductNotFound)
		return
	}
	JSONList(w, len(products), products)
}

//
// ==========================
// Get Product By ID
// ==========================
//

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Query.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err, msgProductNotFound)
		return
	}
	JSONData(w, http.StatusOK, p)
}

//
// ==========================
// Create Product
// ==========================
//

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input models.ProductFields
	if !decodeBody(w, r, &input) {
		return
	}

	p, err := h.Coordinator.AddProduct(r.Context(), input)
	if err != nil {
		writeError(w, r, h.Logger, err, msgProductNotFound)
		return
	}
	JSONData(w, http.StatusCreated, p)
}

//
// ==========================
// Update Product
// ==========================
//

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var input models.ProductFields
	if !decodeBody(w, r, &input) {
		return
	}

	p, err := h.Coordinator.UpdateProduct(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, r, h.Logger, err, msgProductNotFound)
		return
	}
	JSONData(w, http.StatusOK, p)
}

//
// ==========================
// Delete Product
// ==========================
//

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Coordinator.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.Logger, err, msgProductNotFound)
		return
	}
	JSONData(w, http.StatusOK, struct{}{})
}
