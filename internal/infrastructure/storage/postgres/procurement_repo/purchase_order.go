// Package procurement_repo provides the PostgreSQL purchase order repository.
package procurement_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/procurement"
	"bookstore/internal/infrastructure/storage/postgres"
)

const (
	poTable   = "doc_purchase_orders"
	lineTable = "doc_purchase_order_lines"
)

var _ procurement.Repository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implements procurement.Repository.
type PurchaseOrderRepo struct {
	txManager *postgres.TxManager
	poCols    []string
	lineCols  []string
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		txManager: txManager,
		poCols:    postgres.ExtractDBColumns[procurement.PurchaseOrder](),
		lineCols:  postgres.ExtractDBColumns[procurement.Line](),
	}
}

func (r *PurchaseOrderRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts the purchase order and all of its lines. Line rows go
// out in one batch round-trip; requires the caller's transaction. The
// unique (purchase_order_id, book_id) index backs the merged-lines
// invariant at the storage level.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *procurement.PurchaseOrder) error {
	q := r.builder().
		Insert(poTable).
		SetMap(postgres.StructToMap(po))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}

	queries := make([]postgres.BatchQuery, 0, len(po.Lines))
	for _, line := range po.Lines {
		lq := r.builder().
			Insert(lineTable).
			SetMap(postgres.StructToMap(line))
		sql, args, err := lq.ToSql()
		if err != nil {
			return fmt.Errorf("build line insert: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}

	if err := r.txManager.ExecBatch(ctx, queries); err != nil {
		return fmt.Errorf("insert purchase order lines: %w", err)
	}
	return nil
}

// GetByID loads the purchase order with its lines.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, poID id.ID) (*procurement.PurchaseOrder, error) {
	return r.getOne(ctx, poID, false)
}

// GetForUpdate loads the purchase order with its lines under a row lock
// on the header. Receive locks the header so a concurrent receive sees
// the received status instead of double-posting.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, poID id.ID) (*procurement.PurchaseOrder, error) {
	return r.getOne(ctx, poID, true)
}

func (r *PurchaseOrderRepo) getOne(ctx context.Context, poID id.ID, forUpdate bool) (*procurement.PurchaseOrder, error) {
	q := r.builder().
		Select(r.poCols...).
		From(poTable).
		Where(squirrel.Eq{"id": poID}).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var po procurement.PurchaseOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &po, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order", poID.String())
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}

	if err := r.loadLines(ctx, &po); err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *PurchaseOrderRepo) loadLines(ctx context.Context, po *procurement.PurchaseOrder) error {
	q := r.builder().
		Select(r.lineCols...).
		From(lineTable).
		Where(squirrel.Eq{"purchase_order_id": po.ID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &po.Lines, sql, args...); err != nil {
		return fmt.Errorf("load purchase order lines: %w", err)
	}
	return nil
}

// SetStatus updates the header status and received timestamp.
func (r *PurchaseOrderRepo) SetStatus(ctx context.Context, po *procurement.PurchaseOrder) error {
	q := r.builder().
		Update(poTable).
		Set("status", po.Status).
		Set("received_at", po.ReceivedAt).
		Where(squirrel.Eq{"id": po.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set purchase order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order", po.ID.String())
	}
	return nil
}

// ListBySupplier returns purchase orders for one supplier, newest first.
func (r *PurchaseOrderRepo) ListBySupplier(ctx context.Context, supplierID id.ID, limit, offset int) ([]*procurement.PurchaseOrder, error) {
	q := r.builder().
		Select(r.poCols...).
		From(poTable).
		Where(squirrel.Eq{"supplier_id": supplierID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.listWithLines(ctx, q)
}

// List returns purchase orders newest first.
func (r *PurchaseOrderRepo) List(ctx context.Context, limit, offset int) ([]*procurement.PurchaseOrder, error) {
	q := r.builder().
		Select(r.poCols...).
		From(poTable).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.listWithLines(ctx, q)
}

func (r *PurchaseOrderRepo) listWithLines(ctx context.Context, q squirrel.SelectBuilder) ([]*procurement.PurchaseOrder, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []*procurement.PurchaseOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}

	for _, po := range list {
		if err := r.loadLines(ctx, po); err != nil {
			return nil, err
		}
	}
	return list, nil
}
