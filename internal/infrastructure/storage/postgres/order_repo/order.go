// Package order_repo provides the PostgreSQL order repository.
package order_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/orders"
	"bookstore/internal/infrastructure/storage/postgres"
)

const (
	orderTable    = "doc_orders"
	itemTable     = "doc_order_items"
	shipmentTable = "doc_order_shipments"
)

var _ orders.Repository = (*OrderRepo)(nil)

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	txManager    *postgres.TxManager
	orderCols    []string
	itemCols     []string
	shipmentCols []string
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txManager:    txManager,
		orderCols:    postgres.ExtractDBColumns[orders.Order](),
		itemCols:     postgres.ExtractDBColumns[orders.Item](),
		shipmentCols: postgres.ExtractDBColumns[orders.Shipment](),
	}
}

func (r *OrderRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts the order and all its items. Item rows go out in one
// batch round-trip; requires the caller's transaction.
func (r *OrderRepo) Create(ctx context.Context, o *orders.Order) error {
	q := r.builder().
		Insert(orderTable).
		SetMap(postgres.StructToMap(o))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	queries := make([]postgres.BatchQuery, 0, len(o.Items))
	for _, item := range o.Items {
		iq := r.builder().
			Insert(itemTable).
			SetMap(postgres.StructToMap(item))
		sql, args, err := iq.ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}

	if err := r.txManager.ExecBatch(ctx, queries); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

// GetByID retrieves an order with items (and shipment if present).
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return r.getOne(ctx, orderID, false)
}

// GetForUpdate retrieves an order with a row lock for status transitions.
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return r.getOne(ctx, orderID, true)
}

func (r *OrderRepo) getOne(ctx context.Context, orderID id.ID, forUpdate bool) (*orders.Order, error) {
	q := r.builder().
		Select(r.orderCols...).
		From(orderTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o orders.Order
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := r.loadItems(ctx, &o); err != nil {
		return nil, err
	}
	if err := r.loadShipment(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, o *orders.Order) error {
	q := r.builder().
		Select(r.itemCols...).
		From(itemTable).
		Where(squirrel.Eq{"order_id": o.ID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build items query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &o.Items, sql, args...); err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	return nil
}

func (r *OrderRepo) loadShipment(ctx context.Context, o *orders.Order) error {
	q := r.builder().
		Select(r.shipmentCols...).
		From(shipmentTable).
		Where(squirrel.Eq{"order_id": o.ID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build shipment query: %w", err)
	}

	var sh orders.Shipment
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &sh, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil
		}
		return fmt.Errorf("load shipment: %w", err)
	}
	o.Shipment = &sh
	return nil
}

// SetStatus writes a status transition; paidAt is set when non-nil.
func (r *OrderRepo) SetStatus(ctx context.Context, orderID id.ID, status orders.Status, paidAt *time.Time) error {
	q := r.builder().
		Update(orderTable).
		Set("status", status).
		Where(squirrel.Eq{"id": orderID})
	if paidAt != nil {
		q = q.Set("paid_at", *paidAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("order", orderID.String())
	}
	return nil
}

// SaveShipment upserts the shipment row for an order.
func (r *OrderRepo) SaveShipment(ctx context.Context, sh *orders.Shipment) error {
	q := r.builder().
		Insert(shipmentTable).
		SetMap(postgres.StructToMap(sh)).
		Suffix(`ON CONFLICT (order_id) DO UPDATE SET
			carrier = EXCLUDED.carrier,
			tracking_no = EXCLUDED.tracking_no,
			shipped_at = EXCLUDED.shipped_at`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("save shipment: %w", err)
	}
	return nil
}

// ListByCustomer returns a customer's orders with items, newest first.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*orders.Order, error) {
	q := r.builder().
		Select(r.orderCols...).
		From(orderTable).
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []*orders.Order
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	for _, o := range list {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return list, nil
}
