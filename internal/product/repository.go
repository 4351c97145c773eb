package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Stock       int             `json:"stock"`
	IsAvailable bool            `json:"isAvailable"`
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, category, image_url, stock_quantity, is_available
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageURL, &p.Stock, &p.IsAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, category, image_url, stock_quantity, is_available
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageURL, &p.Stock, &p.IsAvailable); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}
