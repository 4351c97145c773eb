package points

// UserPoints is the loyalty ledger row for one user. One point is earned
// per 50 KES of confirmed payment.
type UserPoints struct {
	UserID      int64   `json:"userId"`
	Username    string  `json:"username"`
	Points      int64   `json:"points"`
	PointsSpent int64   `json:"pointsSpent"`
	TotalSpent  float64 `json:"totalSpent"`
	TotalOrders int64   `json:"totalOrders"`
}

// PointsPerAmount is the KES-to-point divisor.
const PointsPerAmount = 50

// Earned computes the points credited for a confirmed payment amount.
func Earned(amount float64) int64 {
	if amount <= 0 {
		return 0
	}
	return int64(amount / PointsPerAmount)
}
