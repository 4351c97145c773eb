package points

import (
	"context"
	"database/sql"
	"errors"

	"sokofresh-be/internal/db"
)

type Repository interface {
	// UpsertOnPayment credits a confirmed payment: a fresh row for a first
	// payment, otherwise an increment of points, lifetime spend and order
	// count. Called only by the payment reconciler, inside its transaction.
	UpsertOnPayment(ctx context.Context, q db.Execer, userID int64, username string, pts int64, amount float64) error
	GetByUser(ctx context.Context, userID int64) (*UserPoints, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

func (r *repository) UpsertOnPayment(ctx context.Context, q db.Execer, userID int64, username string, pts int64, amount float64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO user_points (user_id, username, points, points_spent, total_spent, total_orders)
		VALUES ($1, $2, $3, 0, $4, 1)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			points = user_points.points + EXCLUDED.points,
			total_spent = user_points.total_spent + EXCLUDED.total_spent,
			total_orders = user_points.total_orders + 1
	`, userID, username, pts, amount)
	return err
}

func (r *repository) GetByUser(ctx context.Context, userID int64) (*UserPoints, error) {
	var p UserPoints
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, username, points, points_spent, total_spent, total_orders
		FROM user_points WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Username, &p.Points, &p.PointsSpent, &p.TotalSpent, &p.TotalOrders)
	if errors.Is(err, sql.ErrNoRows) {
		// No payments yet: an empty ledger, not an error.
		return &UserPoints{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
