package dto

import (
	"time"

	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/catalogs/book"
)

// --- Request DTOs ---

// CreateBookRequest for adding catalog titles.
type CreateBookRequest struct {
	BookNo                 string      `json:"bookNo" binding:"required"`
	VolumeNo               string      `json:"volumeNo,omitempty"`
	Title                  string      `json:"title" binding:"required"`
	Price                  types.Money `json:"price"`
	PublisherName          string      `json:"publisherName,omitempty"`
	CategoryName           string      `json:"categoryName,omitempty"`
	SupplierID             *string     `json:"supplierId,omitempty"`
	SupplierCatalogEnabled *bool       `json:"supplierCatalogEnabled,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateBookRequest) ToEntity() *book.Book {
	b := book.New(r.BookNo, r.VolumeNo, r.Title, r.Price)
	b.PublisherName = r.PublisherName
	b.CategoryName = r.CategoryName
	if r.SupplierID != nil {
		if parsed, err := id.Parse(*r.SupplierID); err == nil {
			b.SupplierID = &parsed
		}
	}
	if r.SupplierCatalogEnabled != nil {
		b.SupplierCatalogEnabled = *r.SupplierCatalogEnabled
	}
	return b
}

// UpdateBookRequest for catalog edits. Stock is out of scope here: it moves
// only through inventory operations.
type UpdateBookRequest struct {
	BookNo                 *string      `json:"bookNo,omitempty"`
	VolumeNo               *string      `json:"volumeNo,omitempty"`
	Title                  *string      `json:"title,omitempty"`
	Price                  *types.Money `json:"price,omitempty"`
	PublisherName          *string      `json:"publisherName,omitempty"`
	CategoryName           *string      `json:"categoryName,omitempty"`
	SupplierID             *string      `json:"supplierId,omitempty"`
	SupplierCatalogEnabled *bool        `json:"supplierCatalogEnabled,omitempty"`
	Version                int          `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateBookRequest) ApplyTo(b *book.Book) {
	if r.BookNo != nil {
		b.BookNo = *r.BookNo
	}
	if r.VolumeNo != nil {
		b.VolumeNo = *r.VolumeNo
	}
	if r.Title != nil {
		b.Title = *r.Title
	}
	if r.Price != nil {
		b.Price = *r.Price
	}
	if r.PublisherName != nil {
		b.PublisherName = *r.PublisherName
	}
	if r.CategoryName != nil {
		b.CategoryName = *r.CategoryName
	}
	if r.SupplierID != nil {
		if *r.SupplierID == "" {
			b.SupplierID = nil
		} else if parsed, err := id.Parse(*r.SupplierID); err == nil {
			b.SupplierID = &parsed
		}
	}
	if r.SupplierCatalogEnabled != nil {
		b.SupplierCatalogEnabled = *r.SupplierCatalogEnabled
	}
	b.Version = r.Version
}

// --- Response DTOs ---

// BookResponse represents a catalog title in API responses.
type BookResponse struct {
	ID                     string      `json:"id"`
	BookNo                 string      `json:"bookNo"`
	VolumeNo               string      `json:"volumeNo,omitempty"`
	Title                  string      `json:"title"`
	Price                  types.Money `json:"price"`
	StockQty               int64       `json:"stockQty"`
	PublisherName          string      `json:"publisherName,omitempty"`
	CategoryName           string      `json:"categoryName,omitempty"`
	SupplierID             *string     `json:"supplierId,omitempty"`
	SupplierCatalogEnabled bool        `json:"supplierCatalogEnabled"`
	Version                int         `json:"version"`
	CreatedAt              time.Time   `json:"createdAt"`
	UpdatedAt              time.Time   `json:"updatedAt"`
}

// FromBook converts domain entity to response DTO.
func FromBook(b *book.Book) *BookResponse {
	resp := &BookResponse{
		ID:                     b.ID.String(),
		BookNo:                 b.BookNo,
		VolumeNo:               b.VolumeNo,
		Title:                  b.Title,
		Price:                  b.Price,
		StockQty:               b.StockQty,
		PublisherName:          b.PublisherName,
		CategoryName:           b.CategoryName,
		SupplierCatalogEnabled: b.SupplierCatalogEnabled,
		Version:                b.Version,
		CreatedAt:              b.CreatedAt,
		UpdatedAt:              b.UpdatedAt,
	}
	if b.SupplierID != nil {
		s := b.SupplierID.String()
		resp.SupplierID = &s
	}
	return resp
}

// FromBooks converts a slice of domain entities.
func FromBooks(books []*book.Book) []*BookResponse {
	items := make([]*BookResponse, len(books))
	for i, b := range books {
		items[i] = FromBook(b)
	}
	return items
}
