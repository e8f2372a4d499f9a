// Package ledger provides the append-only stock ledger.
// Entries are immutable: for a given book, entries in creation order
// reconstruct the stock quantity timeline, and each qty_after equals the
// previous qty_after plus qty_change.
package ledger

import (
	"time"

	"bookstore/internal/core/id"
)

// ChangeType names the cause of a stock quantity change.
type ChangeType string

const (
	ChangePurchaseIn   ChangeType = "purchase_in"
	ChangeManualAdjust ChangeType = "manual_adjust"
	ChangeSaleOut      ChangeType = "sale_out"
)

// Valid reports whether t is a known change type.
func (t ChangeType) Valid() bool {
	switch t {
	case ChangePurchaseIn, ChangeManualAdjust, ChangeSaleOut:
		return true
	}
	return false
}

// Entry is one immutable stock-change record.
type Entry struct {
	ID     id.ID `db:"id" json:"id"`
	BookID id.ID `db:"book_id" json:"bookId"`

	ChangeType ChangeType `db:"change_type" json:"changeType"`

	// QtyChange is the signed delta; QtyAfter is the resulting quantity.
	QtyChange int64 `db:"qty_change" json:"qtyChange"`
	QtyAfter  int64 `db:"qty_after" json:"qtyAfter"`

	Note string `db:"note" json:"note,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewEntry builds an entry as a pure function of its inputs.
func NewEntry(bookID id.ID, changeType ChangeType, qtyChange, qtyAfter int64, note string) Entry {
	return Entry{
		ID:         id.New(),
		BookID:     bookID,
		ChangeType: changeType,
		QtyChange:  qtyChange,
		QtyAfter:   qtyAfter,
		Note:       note,
		CreatedAt:  time.Now().UTC(),
	}
}
