package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/checkout-service/internal/domain/auth"
	"github.com/xenking/checkout-service/internal/domain/billing"
	"github.com/xenking/checkout-service/internal/domain/customer"
	"github.com/xenking/checkout-service/internal/domain/page"
	"github.com/xenking/checkout-service/internal/domain/product"
)

// defaultOrderBy is the sort field applied to order pages when the caller
// does not specify one.
const defaultOrderBy = "createdAt"

// ItemRequest is one requested line item. Price and Discount may be supplied
// by the client but are ignored: both are recomputed from the catalog.
type ItemRequest struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
	Discount  decimal.Decimal
}

// CreateOrderRequest holds the input for creating an order.
type CreateOrderRequest struct {
	CustomerID string
	Method     Method
	Items      []ItemRequest
}

// Service orchestrates order creation and the caller-scoped queries.
type Service struct {
	customers     customer.Directory
	products      product.Repository
	slips         billing.Generator
	orders        Repository
	payments      PaymentRepository
	items         LineItemRepository
	confirmations ConfirmationSender
	now           func() time.Time
}

// NewService creates an order Service with the required collaborators.
func NewService(
	customers customer.Directory,
	products product.Repository,
	slips billing.Generator,
	orders Repository,
	payments PaymentRepository,
	items LineItemRepository,
	confirmations ConfirmationSender,
) *Service {
	return &Service{
		customers:     customers,
		products:      products,
		slips:         slips,
		orders:        orders,
		payments:      payments,
		items:         items,
		confirmations: confirmations,
		now:           time.Now,
	}
}

// Create runs the order-creation workflow: validate the request, resolve the
// customer, stamp the creation instant, dispatch on the payment variant,
// persist order then payment then line items, and trigger the confirmation.
//
// The three persistence steps are sequential and not wrapped in one
// transaction: a failure after the order save leaves the order (and possibly
// the payment) written and reports the failure to the caller. Confirmation
// dispatch failures never fail the creation.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: it.ProductID}
		}
	}
	if !req.Method.Valid() {
		return nil, &UnknownMethodError{Method: req.Method}
	}

	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, &CustomerNotFoundError{CustomerID: req.CustomerID}
		}
		return nil, errors.Wrap(err, "resolve customer")
	}

	o := &Order{
		CustomerID: cust.ID,
		CreatedAt:  s.now(),
		Payment: Payment{
			Method: req.Method,
			Status: StatusPending,
		},
	}

	// The one place behavior forks by payment variant.
	switch o.Payment.Method {
	case MethodImmediate:
		// No extra state; settles out of band.
	case MethodBillingSlip:
		slip, err := s.slips.Generate(ctx, o.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "generate billing slip")
		}
		due := slip.DueDate
		o.Payment.DueDate = &due
		o.Payment.SlipReference = slip.Reference
	default:
		return nil, &UnknownMethodError{Method: o.Payment.Method}
	}

	// Order first: its generated identity anchors the payment and items.
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, errors.Wrap(err, "save order")
	}

	o.Payment.OrderID = o.ID
	if err := s.payments.Save(ctx, &o.Payment); err != nil {
		return nil, errors.Wrap(err, "save payment")
	}

	items := make([]LineItem, len(req.Items))
	for i, it := range req.Items {
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, &ProductNotFoundError{ProductID: it.ProductID}
			}
			return nil, errors.Wrapf(err, "resolve product %s", it.ProductID)
		}
		items[i] = LineItem{
			OrderID:   o.ID,
			ProductID: p.ID,
			Quantity:  it.Quantity,
			Price:     p.Price,
			Discount:  decimal.Zero,
		}
	}
	if err := s.items.SaveAll(ctx, items); err != nil {
		return nil, errors.Wrap(err, "save line items")
	}
	o.Items = items

	if err := s.confirmations.SendOrderConfirmation(ctx, o); err != nil {
		zctx.From(ctx).Warn("Order confirmation dispatch failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}

	return o, nil
}

// Get returns a single order visible to the caller. Orders belonging to
// another customer are reported as not found unless the caller is an admin.
func (s *Service) Get(ctx context.Context, caller auth.Caller, id string) (*Order, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}

	if o.CustomerID != caller.CustomerID && !caller.HasScope(auth.ScopeAdmin) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// FindAuthorizedPage returns one page of the caller's own orders. The
// customer filter derives from the caller identity, never from request input.
func (s *Service) FindAuthorizedPage(ctx context.Context, caller auth.Caller, req page.Request) (*page.Page[Order], error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}
	if err := req.Normalize(defaultOrderBy); err != nil {
		return nil, err
	}

	cust, err := s.customers.GetByID(ctx, caller.CustomerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, &CustomerNotFoundError{CustomerID: caller.CustomerID}
		}
		return nil, errors.Wrap(err, "resolve caller customer")
	}

	p, err := s.orders.FindPageByCustomer(ctx, cust.ID, req)
	if err != nil {
		return nil, errors.Wrap(err, "find order page")
	}
	return p, nil
}
