package dto

import (
	"time"

	"bookstore/internal/domain/ledger"
)

// --- Request DTOs ---

// ManualAdjustRequest applies a signed stock delta. Admin-only.
type ManualAdjustRequest struct {
	Delta int64  `json:"delta" binding:"required"`
	Note  string `json:"note,omitempty"`
}

// --- Response DTOs ---

// LedgerEntryResponse is one immutable stock-change record.
type LedgerEntryResponse struct {
	ID         string    `json:"id"`
	BookID     string    `json:"bookId"`
	ChangeType string    `json:"changeType"`
	QtyChange  int64     `json:"qtyChange"`
	QtyAfter   int64     `json:"qtyAfter"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromLedgerEntry converts domain entity to response DTO.
func FromLedgerEntry(e ledger.Entry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:         e.ID.String(),
		BookID:     e.BookID.String(),
		ChangeType: string(e.ChangeType),
		QtyChange:  e.QtyChange,
		QtyAfter:   e.QtyAfter,
		Note:       e.Note,
		CreatedAt:  e.CreatedAt,
	}
}

// FromLedgerEntries converts a slice of domain entities.
func FromLedgerEntries(entries []ledger.Entry) []LedgerEntryResponse {
	items := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = FromLedgerEntry(e)
	}
	return items
}
