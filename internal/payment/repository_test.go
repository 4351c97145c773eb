package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SavePending(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	repo := NewRepository(database)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO pending_payments`).
			WithArgs(int64(42), "ORD-1756000000000-001", "alice",
				"ws_CO_123", "mr_456",
				int64(500), "254712345678", StatusPending, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))

		p := &PendingPayment{
			OrderID:           42,
			OrderNumber:       "ORD-1756000000000-001",
			Username:          "alice",
			CheckoutRequestID: "ws_CO_123",
			MerchantRequestID: "mr_456",
			Amount:            500,
			PhoneNumber:       "254712345678",
			Status:            StatusPending,
		}
		require.NoError(t, repo.SavePending(context.Background(), p))
		assert.Equal(t, int64(1), p.ID)
		assert.Equal(t, now, p.CreatedAt)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO pending_payments`).
			WillReturnError(errors.New("db error"))

		err := repo.SavePending(context.Background(), &PendingPayment{})
		assert.Error(t, err)
	})
}

func TestRepository_GetByCheckoutID(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	repo := NewRepository(database)

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "order_id", "order_number", "username",
			"checkout_request_id", "merchant_request_id",
			"amount", "phone_number", "status", "loan_id", "created_at",
		}).AddRow(1, 42, "ORD-1", "alice", "ws_CO_123", "mr_456",
			500, "254712345678", "pending", nil, time.Now())

		mock.ExpectQuery(`SELECT .* FROM pending_payments\s+WHERE checkout_request_id = \$1`).
			WithArgs("ws_CO_123").
			WillReturnRows(rows)

		p, err := repo.GetByCheckoutID(context.Background(), "ws_CO_123")
		require.NoError(t, err)
		assert.Equal(t, int64(42), p.OrderID)
		assert.Equal(t, StatusPending, p.Status)
		assert.Nil(t, p.LoanID)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM pending_payments`).
			WithArgs("ws_CO_nope").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByCheckoutID(context.Background(), "ws_CO_nope")
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}

func TestRepository_TransitionStatus(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	repo := NewRepository(database)

	t.Run("Moved", func(t *testing.T) {
		mock.ExpectExec(`UPDATE pending_payments`).
			WithArgs(StatusCompleted, "ws_CO_123", StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		moved, err := repo.TransitionStatus(context.Background(), database, "ws_CO_123", StatusPending, StatusCompleted)
		require.NoError(t, err)
		assert.True(t, moved)
	})

	t.Run("AlreadyTerminal", func(t *testing.T) {
		// The row exists but is no longer pending: zero rows match the
		// conditional update, and the caller must treat it as a duplicate.
		mock.ExpectExec(`UPDATE pending_payments`).
			WithArgs(StatusCompleted, "ws_CO_123", StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		moved, err := repo.TransitionStatus(context.Background(), database, "ws_CO_123", StatusPending, StatusCompleted)
		require.NoError(t, err)
		assert.False(t, moved)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec(`UPDATE pending_payments`).
			WillReturnError(errors.New("db error"))

		_, err := repo.TransitionStatus(context.Background(), database, "ws_CO_123", StatusPending, StatusFailed)
		assert.Error(t, err)
	})
}

func TestRepository_SaveTransaction(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	repo := NewRepository(database)

	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(int64(42), "ORD-1", int64(7), "alice",
			500.0, "ABC123XYZ", "254712345678", "completed").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.SaveTransaction(context.Background(), database, &Transaction{
		OrderID:      42,
		OrderNumber:  "ORD-1",
		UserID:       7,
		Username:     "alice",
		Amount:       500,
		MpesaReceipt: "ABC123XYZ",
		PhoneNumber:  "254712345678",
		Status:       "completed",
	})
	assert.NoError(t, err)
}
