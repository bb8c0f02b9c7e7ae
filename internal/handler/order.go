package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-service/internal/domain/auth"
	"github.com/xenking/checkout-service/internal/domain/order"
)

type createOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Payment    paymentRequest     `json:"payment"`
	Items      []orderItemRequest `json:"items"`
}

type paymentRequest struct {
	Method string `json:"method"`
}

// orderItemRequest accepts price and discount for wire compatibility, but
// both are recomputed server-side and never persisted as sent.
type orderItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
}

type orderResponse struct {
	ID         string             `json:"id"`
	CustomerID string             `json:"customer_id"`
	CreatedAt  time.Time          `json:"created_at"`
	Total      float64            `json:"total"`
	Payment    paymentResponse    `json:"payment"`
	Items      []lineItemResponse `json:"items"`
}

type paymentResponse struct {
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	SlipReference string     `json:"slip_reference,omitempty"`
}

type lineItemResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Discount  float64 `json:"discount"`
}

type orderPageResponse struct {
	Items        []orderResponse `json:"items"`
	Total        int64           `json:"total"`
	Page         int             `json:"page"`
	LinesPerPage int             `json:"linesPerPage"`
}

// CreateOrder runs the order-creation workflow and responds with the
// persisted aggregate.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Discount:  it.Discount,
		}
	}

	o, err := h.orders.Create(r.Context(), order.CreateOrderRequest{
		CustomerID: req.CustomerID,
		Method:     order.Method(req.Payment.Method),
		Items:      items,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+o.ID)
	writeJSON(w, http.StatusCreated, domainToOrderResponse(o))
}

// GetOrder returns a single order visible to the caller.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())

	o, err := h.orders.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domainToOrderResponse(o))
}

// GetOrderPage returns one page of the caller's own historical orders.
func (h *Handler) GetOrderPage(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())

	req, err := pageRequestFromQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := h.orders.FindAuthorizedPage(r.Context(), caller, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]orderResponse, len(p.Items))
	for i := range p.Items {
		items[i] = domainToOrderResponse(&p.Items[i])
	}
	writeJSON(w, http.StatusOK, orderPageResponse{
		Items:        items,
		Total:        p.TotalCount,
		Page:         p.Number,
		LinesPerPage: p.Size,
	})
}

func domainToOrderResponse(o *order.Order) orderResponse {
	items := make([]lineItemResponse, len(o.Items))
	for i, li := range o.Items {
		items[i] = lineItemResponse{
			ID:        li.ID,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			Price:     li.Price.InexactFloat64(),
			Discount:  li.Discount.InexactFloat64(),
		}
	}

	return orderResponse{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		CreatedAt:  o.CreatedAt,
		Total:      o.Total().InexactFloat64(),
		Payment: paymentResponse{
			Method:        string(o.Payment.Method),
			Status:        string(o.Payment.Status),
			DueDate:       o.Payment.DueDate,
			SlipReference: o.Payment.SlipReference,
		},
		Items: items,
	}
}
