package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/checkout-service/internal/domain/product"
)

type productResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	CategoryID string  `json:"category_id,omitempty"`
}

// ListProducts returns every product in the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = domainToProductResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domainToProductResponse(*p))
}

func domainToProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price.InexactFloat64(),
		CategoryID: p.CategoryID,
	}
}
