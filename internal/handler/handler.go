// Package handler exposes the HTTP surface of the checkout service on a chi
// router, delegating business logic to the order service and the catalog
// repositories.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/checkout-service/internal/domain/category"
	"github.com/xenking/checkout-service/internal/domain/order"
	"github.com/xenking/checkout-service/internal/domain/page"
	"github.com/xenking/checkout-service/internal/domain/product"
)

// Handler holds the dependencies of all HTTP endpoints.
type Handler struct {
	orders     *order.Service
	products   product.Repository
	categories category.Repository
	security   *Security
}

// New constructs a Handler with the required domain dependencies.
func New(
	orders *order.Service,
	products product.Repository,
	categories category.Repository,
	security *Security,
) *Handler {
	return &Handler{
		orders:     orders,
		products:   products,
		categories: categories,
		security:   security,
	}
}

// Routes builds the API router. The security middleware resolves the caller
// for every route; scope checks guard the admin-only mutations.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.security.Authenticate)

	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)

	r.Get("/categories", h.ListCategories)
	r.Get("/categories/page", h.GetCategoryPage)
	r.Get("/categories/{id}", h.GetCategory)
	r.Group(func(r chi.Router) {
		r.Use(RequireScope(ScopeAdmin))
		r.Post("/categories", h.CreateCategory)
		r.Put("/categories/{id}", h.UpdateCategory)
		r.Delete("/categories/{id}", h.DeleteCategory)
	})

	r.Post("/orders", h.CreateOrder)
	r.Get("/orders/page", h.GetOrderPage)
	r.Get("/orders/{id}", h.GetOrder)

	return r
}

// errorResponse is the JSON error body shared by all endpoints.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// writeDomainError maps domain errors onto HTTP statuses. Unrecognized errors
// are logged and reported as a generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		iqErr  *order.InvalidQuantityError
		umErr  *order.UnknownMethodError
		cnfErr *order.CustomerNotFoundError
		pnfErr *order.ProductNotFoundError
	)

	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.As(err, &iqErr),
		errors.As(err, &umErr),
		errors.Is(err, category.ErrInvalidName),
		errors.Is(err, page.ErrInvalidPage),
		errors.Is(err, page.ErrInvalidSize),
		errors.Is(err, page.ErrInvalidDirection),
		errors.Is(err, page.ErrInvalidOrderBy):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &cnfErr), errors.As(err, &pnfErr):
		// Unresolvable references on placement are a semantic problem with
		// the request body, not a missing resource.
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, order.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "access denied")
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, category.ErrNotFound),
		errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, category.ErrInUse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pageRequestFromQuery parses the shared pagination query parameters.
func pageRequestFromQuery(r *http.Request) (page.Request, error) {
	q := r.URL.Query()
	req := page.Request{
		OrderBy:   q.Get("orderBy"),
		Direction: page.Direction(q.Get("direction")),
	}

	var err error
	if req.Number, err = intQuery(q.Get("page"), 0); err != nil {
		return req, errors.Wrap(page.ErrInvalidPage, "page")
	}
	if req.Size, err = intQuery(q.Get("linesPerPage"), 0); err != nil {
		return req, errors.Wrap(page.ErrInvalidSize, "linesPerPage")
	}
	return req, nil
}

func intQuery(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
