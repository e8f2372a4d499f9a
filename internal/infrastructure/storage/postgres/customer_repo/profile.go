// Package customer_repo provides the PostgreSQL customer profile repository.
package customer_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/customer"
	"bookstore/internal/infrastructure/storage/postgres"
)

const profileTable = "customer_profiles"

var _ customer.Repository = (*ProfileRepo)(nil)

// ProfileRepo implements customer.Repository.
type ProfileRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewProfileRepo creates a new profile repository.
func NewProfileRepo(txManager *postgres.TxManager) *ProfileRepo {
	return &ProfileRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[customer.Profile](),
	}
}

func (r *ProfileRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ProfileRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(r.selectCols...).From(profileTable)
}

// Create inserts a new profile.
func (r *ProfileRepo) Create(ctx context.Context, p *customer.Profile) error {
	q := r.builder().
		Insert(profileTable).
		SetMap(postgres.StructToMap(p))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile.
func (r *ProfileRepo) GetByID(ctx context.Context, customerID string) (*customer.Profile, error) {
	q := r.baseSelect().Where(squirrel.Eq{"customer_id": customerID})
	return r.getOne(ctx, q, customerID)
}

// GetForUpdate retrieves a profile with a row lock. Settlement locks the
// profile before the balance check.
func (r *ProfileRepo) GetForUpdate(ctx context.Context, customerID string) (*customer.Profile, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"customer_id": customerID}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, customerID)
}

func (r *ProfileRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, customerID string) (*customer.Profile, error) {
	sql, args, err := q.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p customer.Profile
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("customer profile", customerID)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// SetBalance writes the account balance.
func (r *ProfileRepo) SetBalance(ctx context.Context, customerID string, balance types.Money) error {
	q := r.builder().
		Update(profileTable).
		Set("balance", balance).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"customer_id": customerID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("customer profile", customerID)
	}
	return nil
}

// Update modifies profile fields other than balance, with optimistic
// locking.
func (r *ProfileRepo) Update(ctx context.Context, p *customer.Profile) error {
	data := postgres.StructToMap(p)
	delete(data, "customer_id")
	delete(data, "version")
	delete(data, "balance")
	delete(data, "created_at")
	data["updated_at"] = time.Now().UTC()

	q := r.builder().
		Update(profileTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"customer_id": p.CustomerID}).
		Where(squirrel.Eq{"version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict("profile was modified concurrently").
			WithDetail("customerId", p.CustomerID)
	}
	return nil
}
