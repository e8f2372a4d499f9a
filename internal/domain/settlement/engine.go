// Package settlement converts purchase intents into balance, stock and
// order effects under a single transactional boundary.
package settlement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/tx"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/backorder"
	"bookstore/internal/domain/catalogs/book"
	"bookstore/internal/domain/credit"
	"bookstore/internal/domain/customer"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/domain/orders"
	"bookstore/pkg/logger"
)

// State is a purchase attempt's phase. Attempts move
// Quoting → StockChecked → CreditChecked → Committed, or exit early to
// Backordered (stock shortfall) or Rejected (credit failure).
type State string

const (
	StateQuoting       State = "quoting"
	StateStockChecked  State = "stock_checked"
	StateCreditChecked State = "credit_checked"
	StateCommitted     State = "committed"
	StateBackordered   State = "backordered"
	StateRejected      State = "rejected"
)

// Outcome is the terminal result of one purchase attempt.
type Outcome struct {
	State State

	// OrderID is set when State is Committed.
	OrderID id.ID

	// RequestID is set when State is Backordered.
	RequestID id.ID

	// Payable is the discounted amount quoted for the attempt.
	Payable types.Money

	// Reason carries the rejection details when State is Rejected.
	Reason *apperror.AppError
}

// Engine orchestrates purchase attempts. It is the sole writer of orders
// and the sole debiter of customer balances for sales.
type Engine struct {
	books      book.Repository
	profiles   customer.Repository
	orders     orders.Repository
	backorders backorder.Repository
	inventory  *inventory.Manager
	txManager  tx.SerializableManager
}

// NewEngine creates a settlement engine.
func NewEngine(
	books book.Repository,
	profiles customer.Repository,
	orderRepo orders.Repository,
	backorders backorder.Repository,
	inv *inventory.Manager,
	txManager tx.SerializableManager,
) *Engine {
	return &Engine{
		books:      books,
		profiles:   profiles,
		orders:     orderRepo,
		backorders: backorders,
		inventory:  inv,
		txManager:  txManager,
	}
}

// Quote computes the payable amount for a buy-now purchase:
// round(price × qty × (1 − discount), 2, half away from zero).
// The discount is looked up fresh; terms are never cached on an order.
func Quote(price types.Money, qty int64, tier credit.Tier) (baseTotal, payable types.Money) {
	baseTotal = price.Mul(decimal.NewFromInt(qty))
	rate := credit.DiscountRate(tier)
	payable = types.RoundMoney(baseTotal.Mul(decimal.NewFromInt(1).Sub(rate)))
	return baseTotal, payable
}

// AttemptPurchase runs one buy-now purchase attempt. All persisted effects
// (balance debit, stock decrement, ledger entry, order with its item, or the
// auto-registered backorder on shortfall) commit or roll back as one unit.
func (e *Engine) AttemptPurchase(ctx context.Context, customerID string, bookID id.ID, qty int64, receiver orders.Receiver) (Outcome, error) {
	if customerID == "" {
		return Outcome{}, apperror.NewUnauthorized("customer identity is required")
	}
	if qty <= 0 {
		return Outcome{}, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "qty")
	}
	if err := receiver.Validate(); err != nil {
		return Outcome{}, err
	}

	var out Outcome
	err := e.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.attempt(ctx, customerID, bookID, qty, receiver)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	switch out.State {
	case StateCommitted:
		logger.Info(ctx, "purchase committed",
			"customer_id", customerID,
			"book_id", bookID,
			"order_id", out.OrderID,
			"payable", out.Payable.StringFixed(2),
		)
	case StateBackordered:
		logger.Info(ctx, "purchase backordered",
			"customer_id", customerID,
			"book_id", bookID,
			"request_id", out.RequestID,
			"qty", qty,
		)
	case StateRejected:
		logger.Info(ctx, "purchase rejected",
			"customer_id", customerID,
			"book_id", bookID,
			"reason", out.Reason.Code,
		)
	}
	return out, nil
}

// attempt executes the state machine inside the transaction. Validation
// precedes every mutation: nothing is written until the committed phase,
// except the backorder registration which is the terminal effect of a
// shortfall.
func (e *Engine) attempt(ctx context.Context, customerID string, bookID id.ID, qty int64, receiver orders.Receiver) (Outcome, error) {
	// Lock the book row first so the stock check and the decrement cannot
	// interleave with another attempt for the same book.
	b, err := e.books.GetForUpdate(ctx, bookID)
	if err != nil {
		return Outcome{}, err
	}

	// StockChecked: shortfall terminates the attempt with a backorder.
	if qty > b.StockQty {
		req := backorder.New(customerID, &b.ID, b.Title, qty,
			"auto-registered: purchase attempt exceeded stock")
		if err := e.backorders.Create(ctx, req); err != nil {
			return Outcome{}, fmt.Errorf("register backorder: %w", err)
		}
		return Outcome{State: StateBackordered, RequestID: req.ID}, nil
	}

	// Lock the profile; first-time buyers get the tier-1 default.
	profile, err := e.profiles.GetForUpdate(ctx, customerID)
	if apperror.IsNotFound(err) {
		profile = customer.NewProfile(customerID)
		if err := e.profiles.Create(ctx, profile); err != nil {
			return Outcome{}, fmt.Errorf("create profile: %w", err)
		}
	} else if err != nil {
		return Outcome{}, err
	}

	_, payable := Quote(b.Price, qty, profile.CreditTier)

	// CreditChecked: tier rules against the running balance.
	if reason := checkCredit(profile, payable); reason != nil {
		return Outcome{State: StateRejected, Payable: payable, Reason: reason}, nil
	}

	// Committed: debit, decrement + ledger, order. Same transaction.
	newBalance := types.RoundMoney(profile.Balance.Sub(payable))
	if err := e.profiles.SetBalance(ctx, customerID, newBalance); err != nil {
		return Outcome{}, fmt.Errorf("debit balance: %w", err)
	}

	note := fmt.Sprintf("sale to %s, credit tier %d, discount %s%%",
		customerID, profile.CreditTier,
		credit.DiscountRate(profile.CreditTier).Mul(decimal.NewFromInt(100)).String())
	if _, err := e.inventory.SaleOut(ctx, b.ID, qty, note); err != nil {
		return Outcome{}, err
	}

	now := time.Now().UTC()
	o := orders.New(customerID, receiver)
	o.AddItem(b.ID, qty, b.Price)
	// Buy-now applies the credit discount: the order total is the payable
	// amount, while the item keeps the undiscounted unit price snapshot.
	o.TotalAmount = payable
	o.MarkPaid(now)
	if err := e.orders.Create(ctx, o); err != nil {
		return Outcome{}, fmt.Errorf("create order: %w", err)
	}

	return Outcome{State: StateCommitted, OrderID: o.ID, Payable: payable}, nil
}

// checkCredit applies the profile's tier rules to a payable amount.
// A non-nil result is the rejection reason, not a system error.
func checkCredit(profile *customer.Profile, payable types.Money) *apperror.AppError {
	terms := credit.TermsFor(profile.CreditTier)
	balance := profile.Balance

	if !terms.OverdraftAllowed {
		if balance.LessThan(payable) {
			return apperror.NewInsufficientBalance(
				balance.StringFixed(2), payable.StringFixed(2)).
				WithDetail("credit_tier", int(profile.CreditTier))
		}
		return nil
	}
	if !terms.OverdraftUnlimited {
		// balance after payment = balance − payable must stay ≥ −limit
		if balance.Sub(payable).LessThan(profile.OverdraftLimit.Neg()) {
			return apperror.NewOverdraftExceeded(
				balance.StringFixed(2), payable.StringFixed(2),
				profile.OverdraftLimit.StringFixed(2))
		}
	}
	return nil
}

// CartLine is one line of a cart checkout.
type CartLine struct {
	BookID id.ID
	Qty    int64
}

// CheckoutCart creates a multi-line order at list price. Distinct policy
// from buy-now: no credit discount is applied and the balance is not
// debited; the order starts in the created state awaiting payment. Stock is
// validated and decremented per line within one transaction.
func (e *Engine) CheckoutCart(ctx context.Context, customerID string, lines []CartLine, receiver orders.Receiver) (id.ID, error) {
	if customerID == "" {
		return id.Nil(), apperror.NewUnauthorized("customer identity is required")
	}
	if len(lines) == 0 {
		return id.Nil(), apperror.NewValidation("cart is empty")
	}
	for i, l := range lines {
		if l.Qty <= 0 {
			return id.Nil(), apperror.NewValidation("quantity must be positive").
				WithDetail("lineNo", i+1)
		}
	}
	if err := receiver.Validate(); err != nil {
		return id.Nil(), err
	}

	// Lock books in a stable order to avoid deadlock between concurrent
	// checkouts sharing lines.
	sorted := make([]CartLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BookID.String() < sorted[j].BookID.String()
	})

	var orderID id.ID
	err := e.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		o := orders.New(customerID, receiver)

		for _, line := range sorted {
			note := fmt.Sprintf("cart checkout by %s", customerID)
			b, err := e.inventory.SaleOut(ctx, line.BookID, line.Qty, note)
			if err != nil {
				return err
			}
			o.AddItem(b.ID, line.Qty, b.Price)
		}

		if err := o.Validate(ctx); err != nil {
			return err
		}
		if err := e.orders.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		orderID = o.ID
		return nil
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "cart checkout created",
		"customer_id", customerID,
		"order_id", orderID,
		"lines", len(lines),
	)
	return orderID, nil
}

// PayOrder settles a created cart order: the customer's balance is debited
// by the order total (list price, no discount) under the same overdraft
// rules as buy-now, and the order moves to paid. The engine stays the sole
// debiter of balances; the order service never touches money.
func (e *Engine) PayOrder(ctx context.Context, customerID string, orderID id.ID) (*orders.Order, error) {
	if customerID == "" {
		return nil, apperror.NewUnauthorized("customer identity is required")
	}

	var o *orders.Order
	err := e.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		o, err = e.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.CustomerID != customerID {
			return apperror.NewNotFound("order", orderID)
		}
		if !o.Status.CanTransition(orders.StatusPaid) {
			return apperror.NewInvalidState("order", string(o.Status)).
				WithDetail("requested", string(orders.StatusPaid))
		}

		profile, err := e.profiles.GetForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		if reason := checkCredit(profile, o.TotalAmount); reason != nil {
			return reason
		}

		newBalance := types.RoundMoney(profile.Balance.Sub(o.TotalAmount))
		if err := e.profiles.SetBalance(ctx, customerID, newBalance); err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}

		now := time.Now().UTC()
		if err := e.orders.SetStatus(ctx, o.ID, orders.StatusPaid, &now); err != nil {
			return err
		}
		o.MarkPaid(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order paid",
		"customer_id", customerID,
		"order_id", orderID,
		"amount", o.TotalAmount.StringFixed(2),
	)
	return o, nil
}
