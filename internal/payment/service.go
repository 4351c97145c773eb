package payment

import (
	"context"
	"database/sql"
	"fmt"

	"sokofresh-be/internal/db"
	"sokofresh-be/internal/logger"
	"sokofresh-be/internal/loan"
	"sokofresh-be/internal/metrics"
	"sokofresh-be/internal/mpesa"
	"sokofresh-be/internal/notification"
	"sokofresh-be/internal/order"

	"go.uber.org/zap"
)

// Gateway is the outbound contract against the payment provider,
// implemented by *mpesa.Client.
type Gateway interface {
	InitiateSTKPush(ctx context.Context, phone string, amount int64, reference, description string) (*mpesa.STKPushResponse, error)
	QuerySTKStatus(ctx context.Context, checkoutRequestID string) (*mpesa.STKQueryResponse, error)
}

// OrderStore is the slice of the order collaborator the payment path
// touches. No other code path writes Order.payment_status.
type OrderStore interface {
	GetDisplayInfo(ctx context.Context, orderID int64) (*order.DisplayInfo, error)
	SetPaymentStatus(ctx context.Context, q db.Execer, orderID int64, status order.PaymentStatus) error
	SetFulfillmentStatus(ctx context.Context, q db.Execer, orderID int64, status order.Status) error
}

type UserStore interface {
	GetUsername(ctx context.Context, userID int64) (string, error)
	GetAdminIDs(ctx context.Context) ([]int64, error)
}

type PointsStore interface {
	UpsertOnPayment(ctx context.Context, q db.Execer, userID int64, username string, pts int64, amount float64) error
}

type LoanStore interface {
	ReduceBalance(ctx context.Context, loanID int64, amount float64) (*loan.Reduction, error)
}

type Notifier interface {
	Create(ctx context.Context, userID int64, title, message string, typ notification.Type) error
}

type Service interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Status(ctx context.Context, checkoutRequestID string) (*StatusResult, error)
	Reconcile(ctx context.Context, cb *mpesa.CallbackResult) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	gateway  Gateway
	orders   OrderStore
	users    UserStore
	points   PointsStore
	loans    LoanStore
	notifier Notifier
	metrics  *metrics.Reconciliation
}

func NewService(
	database *sql.DB,
	repo Repository,
	gateway Gateway,
	orders OrderStore,
	users UserStore,
	points PointsStore,
	loans LoanStore,
	notifier Notifier,
	m *metrics.Reconciliation,
) Service {
	return &service{
		db:       database,
		repo:     repo,
		gateway:  gateway,
		orders:   orders,
		users:    users,
		points:   points,
		loans:    loans,
		notifier: notifier,
		metrics:  m,
	}
}

// Initiate validates the request, asks the gateway to push a payment
// prompt, and records a pending row. Exactly one row per accepted push;
// zero rows when validation or the gateway fails.
func (s *service) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "Initiate"),
		zap.Int64("order_id", req.OrderID),
		zap.Int64("user_id", req.UserID),
	)

	if req.PhoneNumber == "" || req.OrderID == 0 || req.UserID == 0 || req.Amount == 0 {
		return nil, fmt.Errorf("%w: phoneNumber, amount, orderId and userId are required", ErrValidation)
	}

	amount, err := mpesa.ValidateAmount(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	res, err := s.gateway.InitiateSTKPush(
		ctx,
		req.PhoneNumber,
		amount,
		fmt.Sprintf("ORD-%d", req.OrderID),
		fmt.Sprintf("Order Payment #%d", req.OrderID),
	)
	if err != nil {
		log.Warn("stk push initiation failed", zap.Error(err))
		return nil, err
	}

	// Display lookups are best-effort: a miss must never block a payment
	// the gateway already accepted.
	orderNumber := fmt.Sprintf("ORD-%d", req.OrderID)
	if info, err := s.orders.GetDisplayInfo(ctx, req.OrderID); err == nil {
		orderNumber = info.OrderNumber
	} else {
		log.Warn("order display lookup failed", zap.Error(err))
	}

	username := "Unknown"
	if name, err := s.users.GetUsername(ctx, req.UserID); err == nil {
		username = name
	} else {
		log.Warn("username lookup failed", zap.Error(err))
	}

	pending := &PendingPayment{
		OrderID:           req.OrderID,
		OrderNumber:       orderNumber,
		Username:          username,
		CheckoutRequestID: res.CheckoutRequestID,
		MerchantRequestID: res.MerchantRequestID,
		Amount:            amount,
		PhoneNumber:       req.PhoneNumber,
		Status:            StatusPending,
	}
	if err := s.repo.SavePending(ctx, pending); err != nil {
		log.Error("failed to persist pending payment", zap.Error(err),
			zap.String("checkout_request_id", res.CheckoutRequestID))
		return nil, fmt.Errorf("save pending payment: %w", err)
	}

	log.Info("payment initiated",
		zap.String("checkout_request_id", res.CheckoutRequestID),
		zap.Int64("amount", amount),
	)

	return &InitiateResult{
		CheckoutRequestID: res.CheckoutRequestID,
		Amount:            amount,
		OrderID:           req.OrderID,
	}, nil
}

// Status reports the payment state the poller asks about. The database is
// authoritative once terminal; while pending it falls back to a live
// gateway query.
func (s *service) Status(ctx context.Context, checkoutRequestID string) (*StatusResult, error) {
	p, err := s.repo.GetByCheckoutID(ctx, checkoutRequestID)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusPending {
		return &StatusResult{Status: p.Status, OrderID: p.OrderID}, nil
	}

	live, err := s.gateway.QuerySTKStatus(ctx, checkoutRequestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayQuery, err)
	}

	return &StatusResult{Status: StatusPending, OrderID: p.OrderID, MpesaData: live}, nil
}
