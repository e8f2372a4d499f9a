// Package orders provides the Order aggregate.
package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
)

// Status is an order's lifecycle state.
type Status string

const (
	StatusCreated   Status = "created"
	StatusPaid      Status = "paid"
	StatusPacked    Status = "packed"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// CanTransition reports whether moving to next is a legal transition.
// The forward chain is created→paid→packed→shipped→completed; cancellation
// is allowed until the order ships.
func (s Status) CanTransition(next Status) bool {
	switch next {
	case StatusPaid:
		return s == StatusCreated
	case StatusPacked:
		return s == StatusPaid
	case StatusShipped:
		return s == StatusPaid || s == StatusPacked
	case StatusCompleted:
		return s == StatusShipped
	case StatusCancelled:
		return s == StatusCreated || s == StatusPaid || s == StatusPacked
	}
	return false
}

// Receiver is the delivery contact captured at checkout.
type Receiver struct {
	Name  string `db:"receiver_name" json:"name"`
	Phone string `db:"receiver_phone" json:"phone"`
	Addr  string `db:"receiver_addr" json:"addr"`
}

// Validate checks receiver fields.
func (r Receiver) Validate() error {
	if r.Name == "" || r.Phone == "" || r.Addr == "" {
		return apperror.NewValidation("receiver name, phone and address are required")
	}
	return nil
}

// Order is a customer order. TotalAmount is computed by the seller from
// the line amounts (buy-now writes the discounted payable over it);
// nothing is trusted from the client.
type Order struct {
	ID         id.ID  `db:"id" json:"id"`
	CustomerID string `db:"customer_id" json:"customerId"`

	Status      Status      `db:"status" json:"status"`
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	Receiver

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	PaidAt    *time.Time `db:"paid_at" json:"paidAt,omitempty"`

	Items []Item `db:"-" json:"items"`

	Shipment *Shipment `db:"-" json:"shipment,omitempty"`
}

// Item is one order line. UnitPrice is the book's price snapshotted at sale
// time, decoupled from later catalog edits.
type Item struct {
	ID      id.ID `db:"id" json:"id"`
	OrderID id.ID `db:"order_id" json:"orderId"`
	BookID  id.ID `db:"book_id" json:"bookId"`

	Qty       int64       `db:"qty" json:"qty"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
}

// LineAmount returns qty × unit price, unrounded.
func (i Item) LineAmount() types.Money {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Qty))
}

// Shipment records carrier details once an order ships.
type Shipment struct {
	OrderID    id.ID      `db:"order_id" json:"orderId"`
	Carrier    string     `db:"carrier" json:"carrier"`
	TrackingNo string     `db:"tracking_no" json:"trackingNo"`
	ShippedAt  *time.Time `db:"shipped_at" json:"shippedAt,omitempty"`
}

// New creates an order with no lines.
func New(customerID string, receiver Receiver) *Order {
	return &Order{
		ID:          id.New(),
		CustomerID:  customerID,
		Status:      StatusCreated,
		TotalAmount: types.ZeroMoney(),
		Receiver:    receiver,
		CreatedAt:   time.Now().UTC(),
	}
}

// AddItem appends a line and recomputes the total.
func (o *Order) AddItem(bookID id.ID, qty int64, unitPrice types.Money) {
	o.Items = append(o.Items, Item{
		ID:        id.New(),
		OrderID:   o.ID,
		BookID:    bookID,
		Qty:       qty,
		UnitPrice: unitPrice,
	})
	o.RecalculateTotal()
}

// RecalculateTotal sets TotalAmount to the sum of line amounts.
func (o *Order) RecalculateTotal() {
	total := types.ZeroMoney()
	for _, item := range o.Items {
		total = total.Add(item.LineAmount())
	}
	o.TotalAmount = types.RoundMoney(total)
}

// MarkPaid transitions the order to paid at ts.
func (o *Order) MarkPaid(ts time.Time) {
	o.Status = StatusPaid
	o.PaidAt = &ts
}

// Validate checks order invariants.
func (o *Order) Validate(ctx context.Context) error {
	if o.CustomerID == "" {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if err := o.Receiver.Validate(); err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "items")
	}
	for i, item := range o.Items {
		if id.IsNil(item.BookID) {
			return apperror.NewValidation("book is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Qty <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}
