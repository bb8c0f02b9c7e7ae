package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout-service/internal/domain/order"
	"github.com/xenking/checkout-service/internal/domain/page"
)

const (
	insertOrderSQL = `INSERT INTO orders (customer_id, created_at)
		VALUES ($1, $2) RETURNING id`

	getOrderByIDSQL = `SELECT id, customer_id, created_at FROM orders WHERE id = $1`

	countOrdersByCustomerSQL = `SELECT count(*) FROM orders WHERE customer_id = $1`

	getPaymentsByOrderIDsSQL = `SELECT id, order_id, method, status, due_date, COALESCE(slip_reference, '')
		FROM payments WHERE order_id = ANY($1)`

	getItemsByOrderIDsSQL = `SELECT id, order_id, product_id, quantity, price, discount
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`

	insertPaymentSQL = `INSERT INTO payments (order_id, method, status, due_date, slip_reference)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')) RETURNING id`

	insertLineItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, price, discount)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
)

// orderSortColumns whitelists the sortable fields of the order page query.
// Caller-supplied sort input never reaches the SQL text directly.
var orderSortColumns = map[string]string{
	"id":        "id",
	"createdAt": "created_at",
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Save inserts the order row and assigns the generated identity to o.ID.
// The payment and line items are persisted separately by their repositories.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	err := r.pool.QueryRow(ctx, insertOrderSQL, o.CustomerID, o.CreatedAt).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	return nil
}

// GetByID loads one order together with its payment and line items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.pool.QueryRow(ctx, getOrderByIDSQL, id).Scan(&o.ID, &o.CustomerID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	orders := []order.Order{o}
	if err := r.attachDetails(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// FindPageByCustomer returns one sorted page of the customer's orders with
// payments and line items attached.
func (r *OrderRepository) FindPageByCustomer(ctx context.Context, customerID string, req page.Request) (*page.Page[order.Order], error) {
	column, ok := orderSortColumns[req.OrderBy]
	if !ok {
		return nil, errors.Wrapf(page.ErrInvalidOrderBy, "field %q", req.OrderBy)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countOrdersByCustomerSQL, customerID).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting orders: %w", err)
	}

	// column and direction both come from fixed whitelists.
	query := fmt.Sprintf(`SELECT id, customer_id, created_at FROM orders
		WHERE customer_id = $1 ORDER BY %s %s LIMIT $2 OFFSET $3`, column, req.Direction)

	rows, err := r.pool.Query(ctx, query, customerID, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("querying order page: %w", err)
	}

	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		var o order.Order
		err := row.Scan(&o.ID, &o.CustomerID, &o.CreatedAt)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning order page: %w", err)
	}

	if err := r.attachDetails(ctx, orders); err != nil {
		return nil, err
	}

	return &page.Page[order.Order]{
		Items:      orders,
		TotalCount: total,
		Number:     req.Number,
		Size:       req.Size,
	}, nil
}

// attachDetails loads payments and line items for the given orders in two
// batch queries and attaches them in place.
func (r *OrderRepository) attachDetails(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	rows, err := r.pool.Query(ctx, getPaymentsByOrderIDsSQL, ids)
	if err != nil {
		return fmt.Errorf("querying payments: %w", err)
	}
	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Payment, error) {
		var p order.Payment
		err := row.Scan(&p.ID, &p.OrderID, &p.Method, &p.Status, &p.DueDate, &p.SlipReference)
		return p, err
	})
	if err != nil {
		return fmt.Errorf("scanning payments: %w", err)
	}
	for _, p := range payments {
		if o, ok := byID[p.OrderID]; ok {
			o.Payment = p
		}
	}

	rows, err = r.pool.Query(ctx, getItemsByOrderIDsSQL, ids)
	if err != nil {
		return fmt.Errorf("querying line items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.LineItem, error) {
		var li order.LineItem
		err := row.Scan(&li.ID, &li.OrderID, &li.ProductID, &li.Quantity, &li.Price, &li.Discount)
		return li, err
	})
	if err != nil {
		return fmt.Errorf("scanning line items: %w", err)
	}
	for _, li := range items {
		if o, ok := byID[li.OrderID]; ok {
			o.Items = append(o.Items, li)
		}
	}

	return nil
}

var _ order.PaymentRepository = (*PaymentRepository)(nil)

// PaymentRepository implements order.PaymentRepository backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Save inserts the payment row and assigns the generated identity to p.ID.
func (r *PaymentRepository) Save(ctx context.Context, p *order.Payment) error {
	err := r.pool.QueryRow(ctx, insertPaymentSQL,
		p.OrderID, p.Method, p.Status, p.DueDate, p.SlipReference,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating payment for order %q: %w", p.OrderID, err)
	}
	return nil
}

var _ order.LineItemRepository = (*LineItemRepository)(nil)

// LineItemRepository implements order.LineItemRepository backed by PostgreSQL.
type LineItemRepository struct {
	pool *pgxpool.Pool
}

// NewLineItemRepository returns a LineItemRepository that uses the given pool.
func NewLineItemRepository(pool *pgxpool.Pool) *LineItemRepository {
	return &LineItemRepository{pool: pool}
}

// SaveAll inserts all line items in a single pipelined batch and assigns the
// generated identities in place.
func (r *LineItemRepository) SaveAll(ctx context.Context, items []order.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, li := range items {
		batch.Queue(insertLineItemSQL, li.OrderID, li.ProductID, li.Quantity, li.Price, li.Discount)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	for i := range items {
		if err := br.QueryRow().Scan(&items[i].ID); err != nil {
			return fmt.Errorf("creating line item for product %q: %w", items[i].ProductID, err)
		}
	}
	return nil
}
