package repository

import (
	"context"
	"errors"
	"fmt"

	"power_ledger/internal/model"

	"github.com/jackc/pgx/v5"
)

const productColumns = `id, name, price, daily_income, validity_days, image, category, created_at`

// ProductRepository defines operations for the admin-owned catalog
type ProductRepository interface {
	WithTx(tx pgx.Tx) ProductRepository
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id int) (*model.Product, error)
	FindAll(ctx context.Context) ([]model.Product, error)
}

type productRepository struct {
	db Querier
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db Querier) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx pgx.Tx) ProductRepository {
	return &productRepository{db: tx}
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	sql := `INSERT INTO products (name, price, daily_income, validity_days, image, category)
            VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, sql, p.Name, p.Price, p.DailyIncome, p.ValidityDays, p.Image, p.Category).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	sql := `UPDATE products SET name = $1, price = $2, daily_income = $3, validity_days = $4, image = $5, category = $6
            WHERE id = $7`
	cmdTag, err := r.db.Exec(ctx, sql, p.Name, p.Price, p.DailyIncome, p.ValidityDays, p.Image, p.Category, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("product not found for update")
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id int) (*model.Product, error) {
	p := &model.Product{}
	sql := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(
		&p.ID, &p.Name, &p.Price, &p.DailyIncome, &p.ValidityDays, &p.Image, &p.Category, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

func (r *productRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	sql := `SELECT ` + productColumns + ` FROM products ORDER BY price ASC, id ASC`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Price, &p.DailyIncome, &p.ValidityDays, &p.Image, &p.Category, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}
