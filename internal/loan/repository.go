package loan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
)

var ErrNotFound = errors.New("loan not found")

type Loan struct {
	ID         int64
	UserID     int64
	Amount     float64
	Balance    float64
	AmountPaid float64
	Status     string
}

// Reduction reports the effect of applying a payment to a loan.
type Reduction struct {
	LoanID     int64
	NewBalance float64
	FullyPaid  bool
}

type Repository interface {
	GetByID(ctx context.Context, loanID int64) (*Loan, error)
	// ReduceBalance applies a confirmed payment to the outstanding balance,
	// floored at zero, and marks the loan paid once cleared.
	ReduceBalance(ctx context.Context, loanID int64, amount float64) (*Reduction, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

func (r *repository) GetByID(ctx context.Context, loanID int64) (*Loan, error) {
	var l Loan
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount, balance, amount_paid, status
		FROM loans WHERE id = $1
	`, loanID).Scan(&l.ID, &l.UserID, &l.Amount, &l.Balance, &l.AmountPaid, &l.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) ReduceBalance(ctx context.Context, loanID int64, amount float64) (*Reduction, error) {
	l, err := r.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	newBalance := math.Max(0, l.Balance-amount)
	newAmountPaid := l.AmountPaid + amount
	fullyPaid := newBalance <= 0

	status := l.Status
	if fullyPaid {
		status = "paid"
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE loans
		SET balance = $1, amount_paid = $2, status = $3, updated_at = NOW()
		WHERE id = $4
	`, newBalance, newAmountPaid, status, loanID)
	if err != nil {
		return nil, fmt.Errorf("update loan %d: %w", loanID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}

	return &Reduction{LoanID: loanID, NewBalance: newBalance, FullyPaid: fullyPaid}, nil
}
