package book

import (
	"context"
	"fmt"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/pkg/logger"
)

// Service provides business logic for the book catalog.
type Service struct {
	repo Repository
}

// NewService creates a new book catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a book after checking (bookNo, volumeNo) uniqueness.
func (s *Service) Create(ctx context.Context, b *Book) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.FindByNumber(ctx, b.BookNo, b.VolumeNo)
	if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check book number: %w", err)
	}
	if existing != nil {
		return apperror.NewDuplicate("book", "bookNo", b.BookNo).
			WithDetail("volumeNo", b.VolumeNo)
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	logger.Info(ctx, "book created", "id", b.ID, "book_no", b.BookNo, "volume_no", b.VolumeNo)
	return nil
}

// Update modifies catalog fields. Stock quantity is owned by the inventory
// manager and is not writable here.
func (s *Service) Update(ctx context.Context, b *Book) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.FindByNumber(ctx, b.BookNo, b.VolumeNo)
	if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check book number: %w", err)
	}
	if existing != nil && existing.ID != b.ID {
		return apperror.NewDuplicate("book", "bookNo", b.BookNo).
			WithDetail("volumeNo", b.VolumeNo)
	}

	return s.repo.Update(ctx, b)
}

// GetByID retrieves a book.
func (s *Service) GetByID(ctx context.Context, bookID id.ID) (*Book, error) {
	return s.repo.GetByID(ctx, bookID)
}

// List returns catalog books.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Book, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit, offset)
}
