package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout-service/internal/domain/category"
	"github.com/xenking/checkout-service/internal/domain/page"
)

const (
	insertCategorySQL = `INSERT INTO categories (name) VALUES ($1) RETURNING id`

	updateCategorySQL = `UPDATE categories SET name = $2 WHERE id = $1`

	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`

	getCategoryByIDSQL = `SELECT id, name FROM categories WHERE id = $1`

	listCategoriesSQL = `SELECT id, name FROM categories ORDER BY name`

	countCategoriesSQL = `SELECT count(*) FROM categories`
)

// categorySortColumns whitelists the sortable fields of the category page query.
var categorySortColumns = map[string]string{
	"id":   "id",
	"name": "name",
}

// foreignKeyViolation is the PostgreSQL error code raised when deleting a
// category still referenced by products.
const foreignKeyViolation = "23503"

var _ category.Repository = (*CategoryRepository)(nil)

// CategoryRepository implements category.Repository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create inserts the category and assigns the generated identity to c.ID.
func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	if err := r.pool.QueryRow(ctx, insertCategorySQL, c.Name).Scan(&c.ID); err != nil {
		return fmt.Errorf("creating category: %w", err)
	}
	return nil
}

// Update renames an existing category.
func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

// Delete removes a category. Categories still referenced by products are
// reported as category.ErrInUse.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return category.ErrInUse
		}
		return fmt.Errorf("deleting category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

// GetByID returns a single category by its identifier.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*category.Category, error) {
	var c category.Category
	err := r.pool.QueryRow(ctx, getCategoryByIDSQL, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	return &c, nil
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]category.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// FindPage returns one sorted page of categories.
func (r *CategoryRepository) FindPage(ctx context.Context, req page.Request) (*page.Page[category.Category], error) {
	column, ok := categorySortColumns[req.OrderBy]
	if !ok {
		return nil, errors.Wrapf(page.ErrInvalidOrderBy, "field %q", req.OrderBy)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countCategoriesSQL).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting categories: %w", err)
	}

	// column and direction both come from fixed whitelists.
	query := fmt.Sprintf(`SELECT id, name FROM categories ORDER BY %s %s LIMIT $1 OFFSET $2`,
		column, req.Direction)

	rows, err := r.pool.Query(ctx, query, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("querying category page: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("scanning category page: %w", err)
	}

	return &page.Page[category.Category]{
		Items:      items,
		TotalCount: total,
		Number:     req.Number,
		Size:       req.Size,
	}, nil
}

func scanCategory(row pgx.CollectableRow) (category.Category, error) {
	var c category.Category
	err := row.Scan(&c.ID, &c.Name)
	return c, err
}
