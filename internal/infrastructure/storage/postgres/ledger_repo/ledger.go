// Package ledger_repo provides the PostgreSQL stock ledger repository.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookstore/internal/core/id"
	"bookstore/internal/domain/ledger"
	"bookstore/internal/infrastructure/storage/postgres"
)

const ledgerTable = "reg_stock_ledger"

var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository. The table is insert-only.
type LedgerRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[ledger.Entry](),
	}
}

func (r *LedgerRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Append inserts a ledger entry.
func (r *LedgerRepo) Append(ctx context.Context, e ledger.Entry) error {
	q := r.builder().
		Insert(ledgerTable).
		SetMap(postgres.StructToMap(e))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// ListByBook returns entries for a book in creation order.
func (r *LedgerRepo) ListByBook(ctx context.Context, bookID id.ID, filter ledger.ListFilter) ([]ledger.Entry, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(ledgerTable).
		Where(squirrel.Eq{"book_id": bookID}).
		OrderBy("created_at", "id")

	if filter.ChangeType != nil {
		q = q.Where(squirrel.Eq{"change_type": *filter.ChangeType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}

// ListRecent returns the latest entries across all books.
func (r *LedgerRepo) ListRecent(ctx context.Context, limit int) ([]ledger.Entry, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(ledgerTable).
		OrderBy("created_at DESC").
		Limit(uint64(limit))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}
	return entries, nil
}
