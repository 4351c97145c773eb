package payment

import "time"

// PendingStatus is the lifecycle of one push-payment attempt. Both
// terminal states are final: no transition is defined out of them.
type PendingStatus string

const (
	StatusPending   PendingStatus = "pending"
	StatusCompleted PendingStatus = "completed"
	StatusFailed    PendingStatus = "failed"
)

// PendingPayment is one in-flight STK push attempt. CheckoutRequestID is
// gateway-issued, unique, and serves as the idempotency key for callback
// processing. Rows are never deleted; they are the audit trail.
type PendingPayment struct {
	ID                int64
	OrderID           int64
	OrderNumber       string
	Username          string
	CheckoutRequestID string
	MerchantRequestID string
	Amount            int64
	PhoneNumber       string
	Status            PendingStatus
	LoanID            *int64
	CreatedAt         time.Time
}

// Transaction is the ledger entry written once per confirmed payment.
type Transaction struct {
	ID           int64
	OrderID      int64
	OrderNumber  string
	UserID       int64
	Username     string
	Amount       float64
	MpesaReceipt string
	PhoneNumber  string
	Status       string
	CreatedAt    time.Time
}

type InitiateRequest struct {
	PhoneNumber string
	Amount      float64
	OrderID     int64
	UserID      int64
}

type InitiateResult struct {
	CheckoutRequestID string
	Amount            int64
	OrderID           int64
}

// StatusResult is what the polling endpoint reports. OrderID is only
// meaningful once the payment is known; MpesaData carries the live
// gateway payload while the attempt is still pending.
type StatusResult struct {
	Status    PendingStatus
	OrderID   int64
	MpesaData any
}
