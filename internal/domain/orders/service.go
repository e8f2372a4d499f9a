package orders

import (
	"context"
	"time"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/tx"
	"bookstore/pkg/logger"
)

// Service handles order lifecycle transitions after settlement.
// Order creation itself belongs to the settlement engine.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new order service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// GetByID retrieves an order.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// ListByCustomer returns a customer's orders, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByCustomer(ctx, customerID, limit, offset)
}

// Pack marks a paid order as packed.
func (s *Service) Pack(ctx context.Context, orderID id.ID) error {
	return s.transition(ctx, orderID, StatusPacked, nil)
}

// Ship records shipment details and marks the order shipped.
func (s *Service) Ship(ctx context.Context, orderID id.ID, carrier, trackingNo string) error {
	if carrier == "" {
		return apperror.NewValidation("carrier is required").WithDetail("field", "carrier")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.CanTransition(StatusShipped) {
			return apperror.NewInvalidState("order", string(o.Status))
		}

		now := time.Now().UTC()
		sh := &Shipment{
			OrderID:    o.ID,
			Carrier:    carrier,
			TrackingNo: trackingNo,
			ShippedAt:  &now,
		}
		if err := s.repo.SaveShipment(ctx, sh); err != nil {
			return err
		}
		if err := s.repo.SetStatus(ctx, o.ID, StatusShipped, nil); err != nil {
			return err
		}

		logger.Info(ctx, "order shipped", "order_id", o.ID, "carrier", carrier)
		return nil
	})
}

// Complete marks a shipped order as completed.
func (s *Service) Complete(ctx context.Context, orderID id.ID) error {
	return s.transition(ctx, orderID, StatusCompleted, nil)
}

// Cancel cancels an order that has not shipped.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) error {
	return s.transition(ctx, orderID, StatusCancelled, nil)
}

func (s *Service) transition(ctx context.Context, orderID id.ID, next Status, paidAt *time.Time) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.CanTransition(next) {
			return apperror.NewInvalidState("order", string(o.Status)).
				WithDetail("requested", string(next))
		}
		if err := s.repo.SetStatus(ctx, o.ID, next, paidAt); err != nil {
			return err
		}
		logger.Info(ctx, "order status changed", "order_id", o.ID, "from", o.Status, "to", next)
		return nil
	})
}
