// Package order implements the order-creation workflow and the caller-scoped
// order queries.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-service/internal/domain/page"
)

// Method tags the payment variant of an order. Behavior that differs between
// variants is dispatched with an exhaustive switch on this tag.
type Method string

const (
	// MethodImmediate is a cash-equivalent payment settled out of band.
	MethodImmediate Method = "immediate"
	// MethodBillingSlip is an installment payment with a generated due date
	// and slip reference.
	MethodBillingSlip Method = "billing_slip"
)

// Valid reports whether m is a known payment method.
func (m Method) Valid() bool {
	switch m {
	case MethodImmediate, MethodBillingSlip:
		return true
	}
	return false
}

// Status is the settlement state of a payment. Order creation always writes
// StatusPending; later transitions happen outside this service.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSettled   Status = "settled"
	StatusCancelled Status = "cancelled"
)

// Payment is the single payment attached to an order. DueDate and
// SlipReference are populated only for the billing-slip variant.
type Payment struct {
	ID            string
	OrderID       string
	Method        Method
	Status        Status
	DueDate       *time.Time
	SlipReference string
}

// LineItem is one product-quantity-price-discount entry within an order.
// Price and Discount are recomputed server-side at creation; client-supplied
// values are never persisted.
type LineItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Price     decimal.Decimal
	Discount  decimal.Decimal
}

// Subtotal returns the item price times quantity, minus the discount.
func (li LineItem) Subtotal() decimal.Decimal {
	qty := decimal.NewFromInt(int64(li.Quantity))
	return li.Price.Mul(qty).Sub(li.Discount)
}

// Order is the persisted order aggregate. ID is empty until the repository
// assigns it on insert; CreatedAt is stamped by the workflow, never by the
// client.
type Order struct {
	ID         string
	CustomerID string
	CreatedAt  time.Time
	Payment    Payment
	Items      []LineItem
}

// Total returns the sum of all line-item subtotals.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range o.Items {
		total = total.Add(li.Subtotal())
	}
	return total
}

// Sentinel errors for order validation and queries.
var (
	ErrEmptyItems    = fmt.Errorf("items required")
	ErrUnauthorized  = fmt.Errorf("access denied")
	ErrOrderNotFound = fmt.Errorf("order not found")
)

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// UnknownMethodError indicates a payment method the service does not handle.
type UnknownMethodError struct {
	Method Method
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown payment method %q", e.Method)
}

// CustomerNotFoundError indicates the referenced customer does not exist.
type CustomerNotFoundError struct {
	CustomerID string
}

func (e *CustomerNotFoundError) Error() string {
	return fmt.Sprintf("customer %s not found", e.CustomerID)
}

// ProductNotFoundError indicates a line item references an unknown product.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// Repository defines persistence operations for orders. Save assigns the
// storage identity to o.ID.
type Repository interface {
	Save(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	FindPageByCustomer(ctx context.Context, customerID string, req page.Request) (*page.Page[Order], error)
}

// PaymentRepository persists payments. The payment must carry its OrderID.
type PaymentRepository interface {
	Save(ctx context.Context, p *Payment) error
}

// LineItemRepository persists line items as one batch.
type LineItemRepository interface {
	SaveAll(ctx context.Context, items []LineItem) error
}

// ConfirmationSender dispatches an order confirmation. Implementations must
// not block the workflow; failures are advisory.
type ConfirmationSender interface {
	SendOrderConfirmation(ctx context.Context, o *Order) error
}
