package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/hortifruti-api/internal/model"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	SetStock(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
	ListLowStock(ctx context.Context, threshold int) ([]model.Product, error)
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `id, name, description, price, unit, image, category_id, stock,
	organic, featured, discount, active, created_at, updated_at`

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Unit, &p.Image, &p.CategoryID, &p.Stock,
		&p.Organic, &p.Featured, &p.Discount, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	query := `INSERT INTO products (id, name, description, price, unit, image, category_id, stock,
				organic, featured, discount, active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.Unit, product.Image,
		product.CategoryID, product.Stock, product.Organic, product.Featured, product.Discount, product.Active,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p := &model.Product{}
	err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.CategoryID != nil {
		add("category_id = $%d", *filter.CategoryID)
	}
	if filter.Featured != nil {
		add("featured = $%d", *filter.Featured)
	}
	if filter.Organic != nil {
		add("organic = $%d", *filter.Organic)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		add("name ILIKE '%%' || $%d || '%%'", s)
	}
	if !filter.IncludeInactive {
		conditions = append(conditions, "active = TRUE")
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	return r.query(ctx, query, args...)
}

func (r *pgProductRepo) ListLowStock(ctx context.Context, threshold int) ([]model.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE stock <= $1 ORDER BY stock, name`, threshold)
}

func (r *pgProductRepo) query(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Update writes the catalog columns. Stock is left untouched and the current
// value is read back into product, since orders decrement it concurrently.
func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name=$2, description=$3, price=$4, unit=$5, image=$6, category_id=$7,
				organic=$8, featured=$9, discount=$10, active=$11, updated_at=NOW()
			  WHERE id=$1 RETURNING stock, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.Unit, product.Image,
		product.CategoryID, product.Organic, product.Featured, product.Discount, product.Active,
	).Scan(&product.Stock, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) SetStock(ctx context.Context, product *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE products SET stock=$2, updated_at=NOW() WHERE id=$1 RETURNING updated_at`,
		product.ID, product.Stock,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("set product stock: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}
