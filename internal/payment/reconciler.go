package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sokofresh-be/internal/db"
	"sokofresh-be/internal/logger"
	"sokofresh-be/internal/mpesa"
	"sokofresh-be/internal/notification"
	"sokofresh-be/internal/order"
	"sokofresh-be/internal/points"

	"go.uber.org/zap"
)

// Reconcile settles a pending payment against an asynchronous gateway
// callback. It never returns an error for callbacks that are merely
// unknown or duplicated; those are anomalies to log, not faults to
// surface. The webhook boundary acks the gateway either way.
func (s *service) Reconcile(ctx context.Context, cb *mpesa.CallbackResult) error {
	s.metrics.CallbacksReceived.Inc()

	log := logger.FromCtx(ctx).With(
		zap.String("checkout_request_id", cb.CheckoutRequestID),
		zap.Int("result_code", cb.ResultCode),
	)

	p, err := s.repo.GetByCheckoutID(ctx, cb.CheckoutRequestID)
	if errors.Is(err, ErrPaymentNotFound) {
		// Either a forged callback or one that outran our own insert.
		// Nothing to settle against; record and move on.
		s.metrics.UnknownCheckoutIDs.Inc()
		log.Warn("callback for unknown checkout request id")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load pending payment: %w", err)
	}

	log = log.With(zap.Int64("order_id", p.OrderID))

	if p.Status != StatusPending {
		s.metrics.DuplicatesIgnored.Inc()
		log.Info("duplicate callback for settled payment ignored",
			zap.String("status", string(p.Status)))
		return nil
	}

	if cb.Success {
		return s.settleSuccess(ctx, log, p, cb)
	}
	return s.settleFailure(ctx, log, p, cb)
}

func (s *service) settleSuccess(ctx context.Context, log *zap.Logger, p *PendingPayment, cb *mpesa.CallbackResult) error {
	amount := float64(p.Amount)
	receipt := ""
	payerPhone := p.PhoneNumber
	if cb.Metadata != nil {
		if cb.Metadata.Amount > 0 {
			amount = cb.Metadata.Amount
		}
		receipt = cb.Metadata.ReceiptNumber
		if cb.Metadata.PhoneNumber != "" {
			payerPhone = cb.Metadata.PhoneNumber
		}
	}

	info, err := s.orders.GetDisplayInfo(ctx, p.OrderID)
	if err != nil {
		return fmt.Errorf("load order %d for settlement: %w", p.OrderID, err)
	}

	err = db.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		moved, err := s.repo.TransitionStatus(ctx, tx, p.CheckoutRequestID, StatusPending, StatusCompleted)
		if err != nil {
			return err
		}
		if !moved {
			return errAlreadyTerminal
		}

		if err := s.repo.SaveTransaction(ctx, tx, &Transaction{
			OrderID:      p.OrderID,
			OrderNumber:  p.OrderNumber,
			UserID:       info.UserID,
			Username:     p.Username,
			Amount:       amount,
			MpesaReceipt: receipt,
			PhoneNumber:  payerPhone,
			Status:       "completed",
		}); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}

		if err := s.orders.SetPaymentStatus(ctx, tx, p.OrderID, order.PaymentPaid); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		if err := s.orders.SetFulfillmentStatus(ctx, tx, p.OrderID, order.StatusProcessing); err != nil {
			return fmt.Errorf("advance order to processing: %w", err)
		}

		return s.points.UpsertOnPayment(ctx, tx, info.UserID, p.Username, points.Earned(amount), amount)
	})
	if errors.Is(err, errAlreadyTerminal) {
		// A concurrent delivery of the same callback committed first.
		s.metrics.DuplicatesIgnored.Inc()
		log.Info("lost settlement race to a concurrent callback, ignoring")
		return nil
	}
	if err != nil {
		return fmt.Errorf("settle payment %s: %w", p.CheckoutRequestID, err)
	}

	s.metrics.PaymentsCompleted.Inc()
	log.Info("payment completed",
		zap.Float64("amount", amount),
		zap.String("mpesa_receipt", receipt),
	)

	// The payment is committed. Everything below is best-effort follow-up:
	// each failure is logged on its own and never unwinds the settlement.
	s.afterSuccess(ctx, log, p, info.UserID, amount, receipt)
	return nil
}

func (s *service) afterSuccess(ctx context.Context, log *zap.Logger, p *PendingPayment, userID int64, amount float64, receipt string) {
	if p.LoanID != nil {
		red, err := s.loans.ReduceBalance(ctx, *p.LoanID, amount)
		if err != nil {
			log.Error("loan balance reduction failed",
				zap.Int64("loan_id", *p.LoanID), zap.Error(err))
		} else {
			log.Info("loan balance reduced",
				zap.Int64("loan_id", red.LoanID),
				zap.Float64("new_balance", red.NewBalance),
				zap.Bool("fully_paid", red.FullyPaid),
			)
		}
	}

	if err := s.notifier.Create(ctx, userID,
		"Payment Received",
		fmt.Sprintf("Your payment of KES %.2f for order %s was received. Receipt: %s", amount, p.OrderNumber, receipt),
		notification.TypeSuccess,
	); err != nil {
		log.Error("user payment notification failed", zap.Error(err))
	}

	adminIDs, err := s.users.GetAdminIDs(ctx)
	if err != nil {
		log.Error("admin lookup for notification fan-out failed", zap.Error(err))
		return
	}
	for _, adminID := range adminIDs {
		if err := s.notifier.Create(ctx, adminID,
			"New Payment",
			fmt.Sprintf("%s paid KES %.2f for order %s", p.Username, amount, p.OrderNumber),
			notification.TypeInfo,
		); err != nil {
			log.Error("admin payment notification failed",
				zap.Int64("admin_id", adminID), zap.Error(err))
		}
	}
}

func (s *service) settleFailure(ctx context.Context, log *zap.Logger, p *PendingPayment, cb *mpesa.CallbackResult) error {
	err := db.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		moved, err := s.repo.TransitionStatus(ctx, tx, p.CheckoutRequestID, StatusPending, StatusFailed)
		if err != nil {
			return err
		}
		if !moved {
			return errAlreadyTerminal
		}
		return s.orders.SetPaymentStatus(ctx, tx, p.OrderID, order.PaymentFailed)
	})
	if errors.Is(err, errAlreadyTerminal) {
		s.metrics.DuplicatesIgnored.Inc()
		log.Info("lost settlement race to a concurrent callback, ignoring")
		return nil
	}
	if err != nil {
		return fmt.Errorf("settle failed payment %s: %w", p.CheckoutRequestID, err)
	}

	s.metrics.PaymentsFailed.Inc()
	log.Info("payment failed", zap.String("result_desc", cb.ResultDesc))
	return nil
}
