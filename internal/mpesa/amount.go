package mpesa

import "math"

// Daraja's per-transaction bounds in KES.
const (
	MinAmount = 1
	MaxAmount = 150000
)

// ValidateAmount floors a fractional amount to a whole-shilling value and
// enforces the gateway's bounds. It must be called before any gateway I/O.
func ValidateAmount(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if amount < MinAmount || amount > MaxAmount {
		return 0, ErrInvalidAmount
	}

	return int64(math.Floor(amount)), nil
}
