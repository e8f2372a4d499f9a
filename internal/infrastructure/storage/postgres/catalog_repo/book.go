// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/catalogs/book"
	"bookstore/internal/infrastructure/storage/postgres"
)

const bookTable = "cat_books"

// Compile-time check.
var _ book.Repository = (*BookRepo)(nil)

// BookRepo implements book.Repository.
type BookRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewBookRepo creates a new book repository.
func NewBookRepo(txManager *postgres.TxManager) *BookRepo {
	return &BookRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[book.Book](),
	}
}

func (r *BookRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BookRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(r.selectCols...).From(bookTable)
}

// Create inserts a new book using its "db" tags.
func (r *BookRepo) Create(ctx context.Context, b *book.Book) error {
	q := r.builder().
		Insert(bookTable).
		SetMap(postgres.StructToMap(b))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("book", "bookNo/volumeNo", b.BookNo+"/"+b.VolumeNo)
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// Update modifies catalog fields with optimistic locking. stock_qty is
// excluded; that column belongs to SetStockQty.
func (r *BookRepo) Update(ctx context.Context, b *book.Book) error {
	data := postgres.StructToMap(b)
	delete(data, "id")
	delete(data, "version")
	delete(data, "stock_qty")
	delete(data, "created_at")
	data["updated_at"] = time.Now().UTC()

	q := r.builder().
		Update(bookTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": b.ID}).
		Where(squirrel.Eq{"version": b.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict("book was modified concurrently").
			WithDetail("id", b.ID.String())
	}
	return nil
}

// GetByID retrieves a book by ID.
func (r *BookRepo) GetByID(ctx context.Context, bookID id.ID) (*book.Book, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": bookID}), bookID.String())
}

// GetForUpdate retrieves a book with a row lock.
func (r *BookRepo) GetForUpdate(ctx context.Context, bookID id.ID) (*book.Book, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": bookID}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, bookID.String())
}

// FindByNumber retrieves a book by (bookNo, volumeNo).
func (r *BookRepo) FindByNumber(ctx context.Context, bookNo, volumeNo string) (*book.Book, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"book_no": bookNo}).
		Where(squirrel.Eq{"volume_no": volumeNo})
	return r.getOne(ctx, q, bookNo+"/"+volumeNo)
}

func (r *BookRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*book.Book, error) {
	sql, args, err := q.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b book.Book
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("book", key)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}

// SetStockQty writes the stock quantity. Called only by the inventory
// manager, inside the transaction that records the ledger entry.
func (r *BookRepo) SetStockQty(ctx context.Context, bookID id.ID, qty int64) error {
	q := r.builder().
		Update(bookTable).
		Set("stock_qty", qty).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": bookID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set stock qty: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("book", bookID.String())
	}
	return nil
}

// ListBySupplier returns supplier-catalog titles for procurement.
func (r *BookRepo) ListBySupplier(ctx context.Context, supplierID id.ID) ([]*book.Book, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"supplier_id": supplierID}).
		Where(squirrel.Eq{"supplier_catalog_enabled": true}).
		OrderBy("book_no", "volume_no")

	return r.list(ctx, q)
}

// List returns books ordered by catalog number.
func (r *BookRepo) List(ctx context.Context, limit, offset int) ([]*book.Book, error) {
	q := r.baseSelect().
		OrderBy("book_no", "volume_no").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.list(ctx, q)
}

func (r *BookRepo) list(ctx context.Context, q squirrel.SelectBuilder) ([]*book.Book, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var books []*book.Book
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &books, sql, args...); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}
