package backorder

import (
	"context"
	"fmt"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/tx"
	"bookstore/pkg/logger"
)

// Service handles customer-created requests and admin replies.
// Auto-registration on a failed sale belongs to the settlement engine;
// procurement transitions belong to the procurement engine.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new backorder service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Submit registers a customer request, title-only or linked to a book.
func (s *Service) Submit(ctx context.Context, customerID string, bookID *id.ID, bookTitle string, qty int64, note string) (*Request, error) {
	r := New(customerID, bookID, bookTitle, qty, note)
	if err := r.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create backorder request: %w", err)
	}

	logger.Info(ctx, "backorder request submitted",
		"request_id", r.ID,
		"customer_id", customerID,
		"title", bookTitle,
		"qty", qty,
	)
	return r, nil
}

// Reply updates a request's status with an admin reply.
func (s *Service) Reply(ctx context.Context, requestID id.ID, status Status, adminReply string) (*Request, error) {
	var r *Request
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.repo.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !r.Status.CanTransition(status) {
			return apperror.NewInvalidState("backorder request", string(r.Status)).
				WithDetail("requested", string(status))
		}

		r.Status = status
		r.AdminReply = adminReply
		r.Touch()
		return s.repo.Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "backorder request updated", "request_id", requestID, "status", status)
	return r, nil
}

// ListByCustomer returns a customer's requests, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*Request, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByCustomer(ctx, customerID, limit, offset)
}

// ListOpen returns requests awaiting procurement.
func (s *Service) ListOpen(ctx context.Context, limit, offset int) ([]*Request, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByStatus(ctx, []Status{StatusSubmitted, StatusProcessing}, limit, offset)
}
