package order

import (
	"context"
	"errors"
	"fmt"

	"sokofresh-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, userID int64, input CreateInput) (*Order, error)
	Get(ctx context.Context, userID, orderID int64, isAdmin bool) (*Order, error)
	List(ctx context.Context, userID int64, isAdmin bool) ([]*Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status Status) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, userID int64, input CreateInput) (*Order, error) {
	if userID == 0 {
		return nil, errors.New("unauthorized")
	}
	return s.repo.CreateFromCart(ctx, userID, input)
}

func (s *service) Get(ctx context.Context, userID, orderID int64, isAdmin bool) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != userID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) List(ctx context.Context, userID int64, isAdmin bool) ([]*Order, error) {
	if isAdmin {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByUser(ctx, userID)
}

// UpdateStatus is the admin fulfillment path. It enforces the forward-only
// lifecycle; payment status is never writable here.
func (s *service) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !CanTransition(o.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}

	if err := s.repo.UpdateFulfillmentStatus(ctx, orderID, status); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(status)),
	)
	return nil
}
