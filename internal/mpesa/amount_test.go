package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAmount(t *testing.T) {
	t.Run("LowerBound", func(t *testing.T) {
		got, err := ValidateAmount(1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("UpperBound", func(t *testing.T) {
		got, err := ValidateAmount(150000)
		require.NoError(t, err)
		assert.Equal(t, int64(150000), got)
	})

	t.Run("FloorsFraction", func(t *testing.T) {
		got, err := ValidateAmount(49.9)
		require.NoError(t, err)
		assert.Equal(t, int64(49), got)
	})

	t.Run("Rejects", func(t *testing.T) {
		for _, amount := range []float64{0, -5, 150001, 0.5} {
			_, err := ValidateAmount(amount)
			assert.ErrorIs(t, err, ErrInvalidAmount, "amount %v", amount)
		}
	})
}
