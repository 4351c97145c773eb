package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"sokofresh-be/internal/db"
	"sokofresh-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	CreateFromCart(ctx context.Context, userID int64, input CreateInput) (*Order, error)
	GetByID(ctx context.Context, orderID int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
	GetDisplayInfo(ctx context.Context, orderID int64) (*DisplayInfo, error)
	SetPaymentStatus(ctx context.Context, q db.Execer, orderID int64, status PaymentStatus) error
	SetFulfillmentStatus(ctx context.Context, q db.Execer, orderID int64, status Status) error
	UpdateFulfillmentStatus(ctx context.Context, orderID int64, status Status) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%03d", time.Now().UnixMilli(), rand.Intn(1000))
}

// CreateFromCart turns the user's cart into an order in one transaction:
// authoritative price lookups, order + item inserts, and cart clearing
// succeed or fail together.
func (r *repository) CreateFromCart(ctx context.Context, userID int64, input CreateInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateFromCart"),
		zap.Int64("user_id", userID),
	)

	var created *Order

	err := db.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT p.id, p.name, p.price, p.is_available, c.quantity
			FROM carts c
			JOIN products p ON p.id = c.product_id
			WHERE c.user_id = $1
		`, userID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		defer rows.Close()

		var items []Item
		subtotal := decimal.Zero

		for rows.Next() {
			var (
				item      Item
				available bool
			)
			if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Price, &available, &item.Quantity); err != nil {
				return fmt.Errorf("scan cart item: %w", err)
			}
			if !available {
				return fmt.Errorf("%w: product %d", ErrProductUnavailable, item.ProductID)
			}

			item.Subtotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			subtotal = subtotal.Add(item.Subtotal)
			items = append(items, item)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrCartEmpty
		}

		deliveryFee := decimal.Zero
		if input.Delivery {
			deliveryFee = DeliveryFee
		}
		total := subtotal.Add(deliveryFee)

		o := &Order{
			UserID:           userID,
			OrderNumber:      generateOrderNumber(),
			Subtotal:         subtotal,
			DeliveryFee:      deliveryFee,
			Total:            total,
			Status:           StatusPending,
			PaymentMethod:    "M-Pesa",
			PaymentStatus:    PaymentPending,
			PhoneNumber:      input.Phone,
			DeliveryLocation: input.Location,
			Notes:            input.Notes,
			CreatedAt:        time.Now(),
			Items:            items,
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (
				user_id, order_number, subtotal, delivery_fee, total,
				status, payment_method, payment_status,
				phone_number, delivery_location, notes, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			RETURNING id
		`,
			o.UserID, o.OrderNumber, o.Subtotal, o.DeliveryFee, o.Total,
			o.Status, o.PaymentMethod, o.PaymentStatus,
			o.PhoneNumber, o.DeliveryLocation, o.Notes, o.CreatedAt,
		).Scan(&o.ID)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range o.Items {
			o.Items[i].OrderID = o.ID
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, product_name, quantity, price, subtotal)
				VALUES ($1,$2,$3,$4,$5,$6)
			`,
				o.ID, o.Items[i].ProductID, o.Items[i].ProductName,
				o.Items[i].Quantity, o.Items[i].Price, o.Items[i].Subtotal,
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		created = o
		return nil
	})
	if err != nil {
		log.Error("order creation failed", zap.Error(err))
		return nil, err
	}

	log.Info("order created",
		zap.Int64("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.String("total", created.Total.String()),
	)

	return created, nil
}

func (r *repository) GetByID(ctx context.Context, orderID int64) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, order_number, subtotal, delivery_fee, total,
		       status, payment_method, payment_status,
		       phone_number, delivery_location, notes, created_at
		FROM orders WHERE id = $1
	`, orderID).Scan(
		&o.ID, &o.UserID, &o.OrderNumber, &o.Subtotal, &o.DeliveryFee, &o.Total,
		&o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.PhoneNumber, &o.DeliveryLocation, &o.Notes, &o.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price, subtotal
		FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price, &item.Subtotal); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}

	return &o, rows.Err()
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]*Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, order_number, subtotal, delivery_fee, total,
		       status, payment_method, payment_status,
		       phone_number, delivery_location, notes, created_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
}

func (r *repository) ListAll(ctx context.Context) ([]*Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, order_number, subtotal, delivery_fee, total,
		       status, payment_method, payment_status,
		       phone_number, delivery_location, notes, created_at
		FROM orders ORDER BY created_at DESC
	`)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.OrderNumber, &o.Subtotal, &o.DeliveryFee, &o.Total,
			&o.Status, &o.PaymentMethod, &o.PaymentStatus,
			&o.PhoneNumber, &o.DeliveryLocation, &o.Notes, &o.CreatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}

	return orders, rows.Err()
}

func (r *repository) GetDisplayInfo(ctx context.Context, orderID int64) (*DisplayInfo, error) {
	var info DisplayInfo
	err := r.db.QueryRowContext(ctx, `
		SELECT order_number, user_id FROM orders WHERE id = $1
	`, orderID).Scan(&info.OrderNumber, &info.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// SetPaymentStatus is called only by the payment reconciler, inside its
// transaction.
func (r *repository) SetPaymentStatus(ctx context.Context, q db.Execer, orderID int64, status PaymentStatus) error {
	res, err := q.ExecContext(ctx, `UPDATE orders SET payment_status = $1 WHERE id = $2`, status, orderID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFulfillmentStatus is the reconciler-side variant without the
// forward-only guard; the reconciler only ever moves Pending orders to
// Processing.
func (r *repository) SetFulfillmentStatus(ctx context.Context, q db.Execer, orderID int64, status Status) error {
	res, err := q.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, orderID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateFulfillmentStatus is the admin path; the transition guard lives in
// the service.
func (r *repository) UpdateFulfillmentStatus(ctx context.Context, orderID int64, status Status) error {
	return r.SetFulfillmentStatus(ctx, r.db, orderID, status)
}
