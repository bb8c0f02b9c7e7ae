package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/checkout-service/internal/domain/category"
)

type categoryRequest struct {
	Name string `json:"name"`
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type categoryPageResponse struct {
	Items        []categoryResponse `json:"items"`
	Total        int64              `json:"total"`
	Page         int                `json:"page"`
	LinesPerPage int                `json:"linesPerPage"`
}

// GetCategory returns a single category by ID.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse{ID: c.ID, Name: c.Name})
}

// ListCategories returns every category.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]categoryResponse, len(list))
	for i, c := range list {
		out[i] = categoryResponse{ID: c.ID, Name: c.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCategoryPage returns one sorted page of categories.
func (h *Handler) GetCategoryPage(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequestFromQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := req.Normalize("name"); err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := h.categories.FindPage(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]categoryResponse, len(p.Items))
	for i, c := range p.Items {
		items[i] = categoryResponse{ID: c.ID, Name: c.Name}
	}
	writeJSON(w, http.StatusOK, categoryPageResponse{
		Items:        items,
		Total:        p.TotalCount,
		Page:         p.Number,
		LinesPerPage: p.Size,
	})
}

// CreateCategory inserts a new category. Admin only.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := category.Category{Name: req.Name}
	if err := c.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.categories.Create(r.Context(), &c); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+c.ID)
	w.WriteHeader(http.StatusCreated)
}

// UpdateCategory renames an existing category. Admin only.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := category.Category{ID: chi.URLParam(r, "id"), Name: req.Name}
	if err := c.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.categories.Update(r.Context(), &c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCategory removes a category. Admin only.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
