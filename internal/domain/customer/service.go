package customer

import (
	"context"
	"fmt"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/tx"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/credit"
	"bookstore/pkg/logger"
)

// Auditor records admin mutations for later review.
type Auditor interface {
	Record(ctx context.Context, entityType, entityID, action string, changes any) error
}

// Service provides profile operations outside the settlement path.
type Service struct {
	repo      Repository
	txManager tx.Manager
	auditor   Auditor // optional
}

// NewService creates a new customer service.
func NewService(repo Repository, txManager tx.Manager, auditor Auditor) *Service {
	return &Service{repo: repo, txManager: txManager, auditor: auditor}
}

// GetOrCreate returns the profile for customerID, creating the tier-1
// default on first use.
func (s *Service) GetOrCreate(ctx context.Context, customerID string) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, customerID)
	if err == nil {
		return p, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	p = NewProfile(customerID)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	logger.Info(ctx, "customer profile created", "customer_id", customerID)
	return p, nil
}

// Recharge credits amount to the customer's balance.
func (s *Service) Recharge(ctx context.Context, customerID string, amount types.Money) (*Profile, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("recharge amount must be positive").
			WithDetail("field", "amount")
	}

	var p *Profile
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetForUpdate(ctx, customerID)
		if apperror.IsNotFound(err) {
			p = NewProfile(customerID)
			if err := s.repo.Create(ctx, p); err != nil {
				return fmt.Errorf("create profile: %w", err)
			}
		} else if err != nil {
			return err
		}

		p.Balance = types.RoundMoney(p.Balance.Add(amount))
		return s.repo.SetBalance(ctx, customerID, p.Balance)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "balance recharged",
		"customer_id", customerID,
		"amount", amount.StringFixed(2),
		"balance", p.Balance.StringFixed(2),
	)
	return p, nil
}

// SetCredit updates a customer's credit tier and overdraft limit (admin).
func (s *Service) SetCredit(ctx context.Context, customerID string, tier credit.Tier, overdraftLimit types.Money) (*Profile, error) {
	if !tier.Valid() {
		return nil, apperror.NewValidation("credit tier must be between 1 and 5").
			WithDetail("field", "creditTier")
	}
	if overdraftLimit.IsNegative() {
		return nil, apperror.NewValidation("overdraft limit cannot be negative").
			WithDetail("field", "overdraftLimit")
	}

	var p *Profile
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetForUpdate(ctx, customerID)
		if err != nil {
			return err
		}

		prev := struct {
			Tier  credit.Tier `json:"tier"`
			Limit string      `json:"overdraftLimit"`
		}{p.CreditTier, p.OverdraftLimit.StringFixed(2)}

		p.CreditTier = tier
		p.OverdraftLimit = overdraftLimit
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}

		if s.auditor != nil {
			change := map[string]any{
				"before": prev,
				"after": map[string]any{
					"tier":           tier,
					"overdraftLimit": overdraftLimit.StringFixed(2),
				},
			}
			if err := s.auditor.Record(ctx, "customer_profile", customerID, "set_credit", change); err != nil {
				return fmt.Errorf("audit credit change: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "credit terms updated",
		"customer_id", customerID,
		"tier", int(tier),
		"overdraft_limit", overdraftLimit.StringFixed(2),
	)
	return p, nil
}

// GetByID retrieves a profile.
func (s *Service) GetByID(ctx context.Context, customerID string) (*Profile, error) {
	return s.repo.GetByID(ctx, customerID)
}
