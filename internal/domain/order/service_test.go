package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/checkout-service/internal/domain/auth"
	"github.com/xenking/checkout-service/internal/domain/billing"
	"github.com/xenking/checkout-service/internal/domain/customer"
	"github.com/xenking/checkout-service/internal/domain/page"
	"github.com/xenking/checkout-service/internal/domain/product"
)

// --- Mock implementations ---

type mockDirectory struct {
	byID map[string]*customer.Customer
	err  error
}

func (m *mockDirectory) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

type mockProductRepo struct {
	byID map[string]*product.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, _ []string) ([]product.Product, error) {
	return nil, nil
}

type mockSlipGenerator struct {
	err   error
	calls []time.Time
}

func (m *mockSlipGenerator) Generate(_ context.Context, ref time.Time) (*billing.Slip, error) {
	m.calls = append(m.calls, ref)
	if m.err != nil {
		return nil, m.err
	}
	return &billing.Slip{DueDate: ref.AddDate(0, 0, 7), Reference: "slip-001"}, nil
}

type mockOrderRepo struct {
	saved      []*Order
	saveErr    error
	byID       map[string]*Order
	lastPageBy string
	lastPage   page.Request
	pageResult *page.Page[Order]
}

func (m *mockOrderRepo) Save(_ context.Context, o *Order) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	o.ID = "order-1"
	m.saved = append(m.saved, o)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) FindPageByCustomer(_ context.Context, customerID string, req page.Request) (*page.Page[Order], error) {
	m.lastPageBy = customerID
	m.lastPage = req
	if m.pageResult != nil {
		return m.pageResult, nil
	}
	return &page.Page[Order]{Number: req.Number, Size: req.Size}, nil
}

type mockPaymentRepo struct {
	saved []Payment
	err   error
}

func (m *mockPaymentRepo) Save(_ context.Context, p *Payment) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, *p)
	return nil
}

type mockItemRepo struct {
	saved [][]LineItem
	err   error
}

func (m *mockItemRepo) SaveAll(_ context.Context, items []LineItem) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, items)
	return nil
}

type mockConfirmations struct {
	sent []*Order
	err  error
}

func (m *mockConfirmations) SendOrderConfirmation(_ context.Context, o *Order) error {
	m.sent = append(m.sent, o)
	return m.err
}

// --- Helpers ---

type fixture struct {
	customers     *mockDirectory
	products      *mockProductRepo
	slips         *mockSlipGenerator
	orders        *mockOrderRepo
	payments      *mockPaymentRepo
	items         *mockItemRepo
	confirmations *mockConfirmations
	svc           *Service
}

var testNow = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		customers: &mockDirectory{byID: map[string]*customer.Customer{
			"cust-7": {ID: "cust-7", Name: "Maria Silva", Email: "maria@example.com"},
		}},
		products: &mockProductRepo{byID: map[string]*product.Product{
			"prod-3": {ID: "prod-3", Name: "Desk Lamp", Price: decimal.RequireFromString("19.90")},
			"prod-4": {ID: "prod-4", Name: "Notebook", Price: decimal.RequireFromString("4.75")},
		}},
		slips:         &mockSlipGenerator{},
		orders:        &mockOrderRepo{},
		payments:      &mockPaymentRepo{},
		items:         &mockItemRepo{},
		confirmations: &mockConfirmations{},
	}
	f.svc = NewService(f.customers, f.products, f.slips, f.orders, f.payments, f.items, f.confirmations)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		CustomerID: "cust-7",
		Method:     MethodImmediate,
		Items:      []ItemRequest{{ProductID: "prod-3", Quantity: 1}},
	}
}

// --- Create ---

func TestCreate_EmptyItems(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateOrderRequest{CustomerID: "cust-7", Method: MethodImmediate})

	require.ErrorIs(t, err, ErrEmptyItems)
	assert.Empty(t, f.orders.saved)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.Items[0].Quantity = 0

	_, err := f.svc.Create(context.Background(), req)

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "prod-3", iqErr.ProductID)
}

func TestCreate_UnknownMethod(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.Method = Method("crypto")

	_, err := f.svc.Create(context.Background(), req)

	var umErr *UnknownMethodError
	require.ErrorAs(t, err, &umErr)
	assert.Empty(t, f.orders.saved)
}

func TestCreate_CustomerNotFound_NoWrites(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.CustomerID = "cust-missing"

	_, err := f.svc.Create(context.Background(), req)

	var cnfErr *CustomerNotFoundError
	require.ErrorAs(t, err, &cnfErr)
	assert.Equal(t, "cust-missing", cnfErr.CustomerID)
	assert.Empty(t, f.orders.saved)
	assert.Empty(t, f.payments.saved)
	assert.Empty(t, f.items.saved)
	assert.Empty(t, f.confirmations.sent)
}

func TestCreate_Immediate(t *testing.T) {
	f := newFixture()

	o, err := f.svc.Create(context.Background(), validRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, testNow, o.CreatedAt)
	assert.Equal(t, StatusPending, o.Payment.Status)
	assert.Equal(t, o.ID, o.Payment.OrderID)
	assert.Nil(t, o.Payment.DueDate)
	assert.Empty(t, o.Payment.SlipReference)
	assert.Empty(t, f.slips.calls)

	require.Len(t, o.Items, 1)
	assert.True(t, decimal.RequireFromString("19.90").Equal(o.Items[0].Price))
	assert.True(t, decimal.Zero.Equal(o.Items[0].Discount))
	assert.Equal(t, o.ID, o.Items[0].OrderID)

	require.Len(t, f.confirmations.sent, 1)
	assert.Same(t, o, f.confirmations.sent[0])
}

func TestCreate_IgnoresClientPriceAndDiscount(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.Items[0].Price = decimal.RequireFromString("0.01")
	req.Items[0].Discount = decimal.RequireFromString("99.00")

	o, err := f.svc.Create(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("19.90").Equal(o.Items[0].Price))
	assert.True(t, decimal.Zero.Equal(o.Items[0].Discount))
}

func TestCreate_BillingSlip(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.Method = MethodBillingSlip

	o, err := f.svc.Create(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, f.slips.calls, 1)
	assert.Equal(t, testNow, f.slips.calls[0])
	require.NotNil(t, o.Payment.DueDate)
	assert.Equal(t, testNow.AddDate(0, 0, 7), *o.Payment.DueDate)
	assert.Equal(t, "slip-001", o.Payment.SlipReference)
	assert.Equal(t, StatusPending, o.Payment.Status)

	// The persisted payment carries the slip fields.
	require.Len(t, f.payments.saved, 1)
	require.NotNil(t, f.payments.saved[0].DueDate)
	assert.Equal(t, "slip-001", f.payments.saved[0].SlipReference)
}

func TestCreate_BillingSlipGeneratorError(t *testing.T) {
	f := newFixture()
	f.slips.err = errors.New("slip service down")
	req := validRequest()
	req.Method = MethodBillingSlip

	_, err := f.svc.Create(context.Background(), req)

	require.Error(t, err)
	assert.Empty(t, f.orders.saved)
	assert.Empty(t, f.payments.saved)
}

func TestCreate_PersistenceOrdering(t *testing.T) {
	f := newFixture()

	o, err := f.svc.Create(context.Background(), CreateOrderRequest{
		CustomerID: "cust-7",
		Method:     MethodImmediate,
		Items: []ItemRequest{
			{ProductID: "prod-3", Quantity: 2},
			{ProductID: "prod-4", Quantity: 1},
		},
	})

	require.NoError(t, err)
	require.Len(t, f.orders.saved, 1)
	require.Len(t, f.payments.saved, 1)
	require.Len(t, f.items.saved, 1)

	assert.Equal(t, o.ID, f.payments.saved[0].OrderID)
	batch := f.items.saved[0]
	require.Len(t, batch, 2)
	for _, li := range batch {
		assert.Equal(t, o.ID, li.OrderID)
	}
	assert.True(t, decimal.RequireFromString("44.55").Equal(o.Total()))
}

func TestCreate_ProductNotFound_AfterOrderAndPaymentWritten(t *testing.T) {
	// Deliberate consistency gap: the product lookup happens after the order
	// and payment saves, so those rows remain when a product is unknown.
	f := newFixture()
	req := validRequest()
	req.Items = append(req.Items, ItemRequest{ProductID: "prod-missing", Quantity: 1})

	_, err := f.svc.Create(context.Background(), req)

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "prod-missing", pnfErr.ProductID)
	assert.Len(t, f.orders.saved, 1)
	assert.Len(t, f.payments.saved, 1)
	assert.Empty(t, f.items.saved)
	assert.Empty(t, f.confirmations.sent)
}

func TestCreate_OrderSaveError(t *testing.T) {
	f := newFixture()
	f.orders.saveErr = errors.New("db write failed")

	_, err := f.svc.Create(context.Background(), validRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save order")
	assert.Empty(t, f.payments.saved)
}

func TestCreate_PaymentSaveError_Reported(t *testing.T) {
	f := newFixture()
	f.payments.err = errors.New("db write failed")

	_, err := f.svc.Create(context.Background(), validRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save payment")
	// The order save is not compensated.
	assert.Len(t, f.orders.saved, 1)
}

func TestCreate_ConfirmationFailureIgnored(t *testing.T) {
	f := newFixture()
	f.confirmations.err = errors.New("broker unreachable")

	o, err := f.svc.Create(context.Background(), validRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Len(t, f.confirmations.sent, 1)
}

// --- Get ---

func TestGet_Unauthenticated(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Get(context.Background(), auth.Caller{}, "order-1")

	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestGet_ForeignOrderHidden(t *testing.T) {
	f := newFixture()
	f.orders.byID = map[string]*Order{
		"order-1": {ID: "order-1", CustomerID: "cust-9"},
	}

	_, err := f.svc.Get(context.Background(), auth.Caller{CustomerID: "cust-7"}, "order-1")

	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGet_AdminSeesAny(t *testing.T) {
	f := newFixture()
	f.orders.byID = map[string]*Order{
		"order-1": {ID: "order-1", CustomerID: "cust-9"},
	}

	o, err := f.svc.Get(context.Background(), auth.Caller{CustomerID: "cust-7", Scopes: []string{auth.ScopeAdmin}}, "order-1")

	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
}

// --- FindAuthorizedPage ---

func TestFindAuthorizedPage_Unauthenticated(t *testing.T) {
	f := newFixture()

	p, err := f.svc.FindAuthorizedPage(context.Background(), auth.Caller{}, page.Request{})

	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Nil(t, p)
	assert.Empty(t, f.orders.lastPageBy)
}

func TestFindAuthorizedPage_ScopedToCaller(t *testing.T) {
	f := newFixture()

	_, err := f.svc.FindAuthorizedPage(context.Background(),
		auth.Caller{CustomerID: "cust-7"},
		page.Request{Number: 2, Size: 5, OrderBy: "createdAt", Direction: page.Descending},
	)

	require.NoError(t, err)
	assert.Equal(t, "cust-7", f.orders.lastPageBy)
	assert.Equal(t, 2, f.orders.lastPage.Number)
	assert.Equal(t, 5, f.orders.lastPage.Size)
	assert.Equal(t, page.Descending, f.orders.lastPage.Direction)
}

func TestFindAuthorizedPage_Defaults(t *testing.T) {
	f := newFixture()

	_, err := f.svc.FindAuthorizedPage(context.Background(), auth.Caller{CustomerID: "cust-7"}, page.Request{})

	require.NoError(t, err)
	assert.Equal(t, page.DefaultSize, f.orders.lastPage.Size)
	assert.Equal(t, "createdAt", f.orders.lastPage.OrderBy)
	assert.Equal(t, page.Ascending, f.orders.lastPage.Direction)
}

func TestFindAuthorizedPage_InvalidDirection(t *testing.T) {
	f := newFixture()

	_, err := f.svc.FindAuthorizedPage(context.Background(),
		auth.Caller{CustomerID: "cust-7"},
		page.Request{Direction: "SIDEWAYS"},
	)

	require.ErrorIs(t, err, page.ErrInvalidDirection)
}

func TestFindAuthorizedPage_CallerCustomerGone(t *testing.T) {
	f := newFixture()

	_, err := f.svc.FindAuthorizedPage(context.Background(), auth.Caller{CustomerID: "cust-unknown"}, page.Request{})

	var cnfErr *CustomerNotFoundError
	require.ErrorAs(t, err, &cnfErr)
}
