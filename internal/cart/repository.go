package cart

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

type Item struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type Repository interface {
	GetItems(ctx context.Context, userID int64) ([]*Item, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

func (r *repository) GetItems(ctx context.Context, userID int64) ([]*Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.product_id, p.name, c.quantity, p.price
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *repository) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = carts.quantity + EXCLUDED.quantity
	`, userID, productID, quantity)
	return err
}

func (r *repository) RemoveItem(ctx context.Context, userID, productID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM carts WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	return err
}

func (r *repository) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
