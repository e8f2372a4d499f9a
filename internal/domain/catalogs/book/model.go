// Package book provides the book catalog.
package book

import (
	"context"
	"time"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
)

// Book represents a catalog title. A title may be published in several
// volumes sharing one BookNo; an empty VolumeNo is the single-volume edition.
type Book struct {
	ID id.ID `db:"id" json:"id"`

	// BookNo is the human-readable catalog number.
	// (BookNo, VolumeNo) is unique.
	BookNo   string `db:"book_no" json:"bookNo"`
	VolumeNo string `db:"volume_no" json:"volumeNo,omitempty"`

	Title string `db:"title" json:"title"`

	Price types.Money `db:"price" json:"price"`

	// StockQty is never negative and never exceeds types.MaxStockQty.
	// Mutated only through the inventory manager.
	StockQty int64 `db:"stock_qty" json:"stockQty"`

	PublisherName string `db:"publisher_name" json:"publisherName,omitempty"`
	CategoryName  string `db:"category_name" json:"categoryName,omitempty"`

	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	// SupplierCatalogEnabled marks the title as listed in the supplier's
	// catalog (meaningful when SupplierID is set).
	SupplierCatalogEnabled bool `db:"supplier_catalog_enabled" json:"supplierCatalogEnabled"`

	// Version for optimistic locking on catalog edits
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a new catalog book.
func New(bookNo, volumeNo, title string, price types.Money) *Book {
	now := time.Now().UTC()
	return &Book{
		ID:                     id.New(),
		BookNo:                 bookNo,
		VolumeNo:               volumeNo,
		Title:                  title,
		Price:                  price,
		SupplierCatalogEnabled: true,
		Version:                1,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (b *Book) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.Version++
}

// Validate checks catalog invariants.
func (b *Book) Validate(ctx context.Context) error {
	if b.BookNo == "" {
		return apperror.NewValidation("book number is required").
			WithDetail("field", "bookNo")
	}
	if b.Title == "" {
		return apperror.NewValidation("title is required").
			WithDetail("field", "title")
	}
	if b.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}
	if b.StockQty < 0 || b.StockQty > types.MaxStockQty {
		return apperror.NewValidation("stock quantity out of range").
			WithDetail("field", "stockQty")
	}
	return nil
}
