package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfillment state. Transitions only move forward; there is
// no path back to Pending.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// PaymentStatus moves from Pending to exactly one of Paid or Failed.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

type Order struct {
	ID               int64
	UserID           int64
	OrderNumber      string
	Subtotal         decimal.Decimal
	DeliveryFee      decimal.Decimal
	Total            decimal.Decimal
	Status           Status
	PaymentMethod    string
	PaymentStatus    PaymentStatus
	PhoneNumber      string
	DeliveryLocation string
	Notes            string
	CreatedAt        time.Time
	Items            []Item
}

type Item struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Subtotal    decimal.Decimal
}

// DisplayInfo is the slice of an order the payment path needs.
type DisplayInfo struct {
	OrderNumber string
	UserID      int64
}

// CreateInput is the client-supplied part of a new order. Prices are never
// taken from the client; the repository reads them from the products table.
type CreateInput struct {
	Delivery bool
	Phone    string
	Location string
	Notes    string
}

// DeliveryFee is charged when the customer asks for delivery.
var DeliveryFee = decimal.NewFromInt(100)

// rank orders the forward-only fulfillment states.
var rank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusCompleted:  2,
}

// CanTransition reports whether moving from one fulfillment status to
// another respects the forward-only lifecycle. Cancellation is allowed
// from any non-terminal state.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	if from == StatusCompleted || from == StatusCancelled {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return rank[to] > rank[from]
}
