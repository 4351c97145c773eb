package loan

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loanRow(balance, paid float64, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "amount", "balance", "amount_paid", "status"}).
		AddRow(3, 7, 2000.0, balance, paid, status)
}

func TestRepository_ReduceBalance(t *testing.T) {
	t.Run("PartialPayment", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()

		mock.ExpectQuery(`SELECT .* FROM loans WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(loanRow(1500, 500, "active"))
		mock.ExpectExec(`UPDATE loans`).
			WithArgs(1000.0, 1000.0, "active", int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		red, err := NewRepository(database).ReduceBalance(context.Background(), 3, 500)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, red.NewBalance)
		assert.False(t, red.FullyPaid)
	})

	t.Run("OverpaymentFloorsAtZero", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()

		mock.ExpectQuery(`SELECT .* FROM loans WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(loanRow(300, 1700, "active"))
		mock.ExpectExec(`UPDATE loans`).
			WithArgs(0.0, 2200.0, "paid", int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		red, err := NewRepository(database).ReduceBalance(context.Background(), 3, 500)
		require.NoError(t, err)
		assert.Equal(t, 0.0, red.NewBalance)
		assert.True(t, red.FullyPaid)
	})

	t.Run("NotFound", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()

		mock.ExpectQuery(`SELECT .* FROM loans WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err = NewRepository(database).ReduceBalance(context.Background(), 99, 500)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
