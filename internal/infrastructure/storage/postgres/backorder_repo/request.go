// Package backorder_repo provides the PostgreSQL backorder repository.
package backorder_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/backorder"
	"bookstore/internal/infrastructure/storage/postgres"
)

const requestTable = "doc_backorder_requests"

var _ backorder.Repository = (*RequestRepo)(nil)

// RequestRepo implements backorder.Repository.
type RequestRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewRequestRepo creates a new backorder request repository.
func NewRequestRepo(txManager *postgres.TxManager) *RequestRepo {
	return &RequestRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[backorder.Request](),
	}
}

func (r *RequestRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *RequestRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(r.selectCols...).From(requestTable)
}

// Create inserts a new request.
func (r *RequestRepo) Create(ctx context.Context, req *backorder.Request) error {
	q := r.builder().
		Insert(requestTable).
		SetMap(postgres.StructToMap(req))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert backorder request: %w", err)
	}
	return nil
}

// GetByID retrieves a request.
func (r *RequestRepo) GetByID(ctx context.Context, requestID id.ID) (*backorder.Request, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": requestID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var req backorder.Request
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &req, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("backorder request", requestID.String())
		}
		return nil, fmt.Errorf("get backorder request: %w", err)
	}
	return &req, nil
}

// GetByIDs retrieves the requests matching requestIDs. Missing IDs are
// silently absent; the caller compares lengths.
func (r *RequestRepo) GetByIDs(ctx context.Context, requestIDs []id.ID) ([]*backorder.Request, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": requestIDs}).
		OrderBy("created_at")

	return r.list(ctx, q)
}

// Update writes request fields.
func (r *RequestRepo) Update(ctx context.Context, req *backorder.Request) error {
	data := postgres.StructToMap(req)
	delete(data, "id")
	delete(data, "created_at")

	q := r.builder().
		Update(requestTable).
		SetMap(data).
		Where(squirrel.Eq{"id": req.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update backorder request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("backorder request", req.ID.String())
	}
	return nil
}

// SetStatus updates status and reply for a batch of requests.
func (r *RequestRepo) SetStatus(ctx context.Context, requestIDs []id.ID, status backorder.Status, adminReply string) error {
	if len(requestIDs) == 0 {
		return nil
	}

	q := r.builder().
		Update(requestTable).
		Set("status", status).
		Set("admin_reply", adminReply).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": requestIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("set backorder status: %w", err)
	}
	return nil
}

// ListOpenByBooks returns requests for the given books in the given
// statuses, oldest first.
func (r *RequestRepo) ListOpenByBooks(ctx context.Context, bookIDs []id.ID, statuses []backorder.Status) ([]*backorder.Request, error) {
	if len(bookIDs) == 0 {
		return nil, nil
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"book_id": bookIDs}).
		Where(squirrel.Eq{"status": statuses}).
		OrderBy("created_at")

	return r.list(ctx, q)
}

// ListByCustomer returns a customer's requests, newest first.
func (r *RequestRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*backorder.Request, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.list(ctx, q)
}

// ListByStatus returns requests in the given statuses, oldest first.
func (r *RequestRepo) ListByStatus(ctx context.Context, statuses []backorder.Status, limit, offset int) ([]*backorder.Request, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"status": statuses}).
		OrderBy("created_at").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.list(ctx, q)
}

func (r *RequestRepo) list(ctx context.Context, q squirrel.SelectBuilder) ([]*backorder.Request, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []*backorder.Request
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list backorder requests: %w", err)
	}
	return list, nil
}
