package payment

import (
	"context"
	"database/sql"
	"errors"

	"sokofresh-be/internal/db"
)

type Repository interface {
	// SavePending inserts a fresh pending row. Called only after the
	// gateway accepted the push request; there is no row without a prior
	// successful gateway response.
	SavePending(ctx context.Context, p *PendingPayment) error
	GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*PendingPayment, error)
	// TransitionStatus performs the guarded pending->terminal move as a
	// single conditional update. It reports false when the row was not in
	// the expected prior state, which closes the race between two
	// concurrent deliveries of the same callback.
	TransitionStatus(ctx context.Context, q db.Execer, checkoutRequestID string, from, to PendingStatus) (bool, error)
	SaveTransaction(ctx context.Context, q db.Execer, t *Transaction) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

func (r *repository) SavePending(ctx context.Context, p *PendingPayment) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO pending_payments (
			order_id, order_number, username,
			checkout_request_id, merchant_request_id,
			amount, phone_number, status, loan_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at
	`,
		p.OrderID, p.OrderNumber, p.Username,
		p.CheckoutRequestID, p.MerchantRequestID,
		p.Amount, p.PhoneNumber, p.Status, p.LoanID,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *repository) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*PendingPayment, error) {
	var p PendingPayment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, order_number, username,
		       checkout_request_id, merchant_request_id,
		       amount, phone_number, status, loan_id, created_at
		FROM pending_payments
		WHERE checkout_request_id = $1
	`, checkoutRequestID).Scan(
		&p.ID, &p.OrderID, &p.OrderNumber, &p.Username,
		&p.CheckoutRequestID, &p.MerchantRequestID,
		&p.Amount, &p.PhoneNumber, &p.Status, &p.LoanID, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) TransitionStatus(ctx context.Context, q db.Execer, checkoutRequestID string, from, to PendingStatus) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE pending_payments
		SET status = $1
		WHERE checkout_request_id = $2
		  AND status = $3
	`, to, checkoutRequestID, from)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) SaveTransaction(ctx context.Context, q db.Execer, t *Transaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (
			order_id, order_number, user_id, username,
			amount, mpesa_receipt, phone_number, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		t.OrderID, t.OrderNumber, t.UserID, t.Username,
		t.Amount, t.MpesaReceipt, t.PhoneNumber, t.Status,
	)
	return err
}
