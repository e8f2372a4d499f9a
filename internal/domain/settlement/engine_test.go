package settlement

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/backorder"
	"bookstore/internal/domain/catalogs/book"
	"bookstore/internal/domain/credit"
	"bookstore/internal/domain/customer"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/domain/ledger"
	"bookstore/internal/domain/orders"
)

// --- fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeBookRepo struct {
	books map[id.ID]*book.Book
}

func newFakeBookRepo(books ...*book.Book) *fakeBookRepo {
	r := &fakeBookRepo{books: make(map[id.ID]*book.Book)}
	for _, b := range books {
		cp := *b
		r.books[b.ID] = &cp
	}
	return r
}

func (r *fakeBookRepo) Create(_ context.Context, b *book.Book) error {
	cp := *b
	r.books[b.ID] = &cp
	return nil
}

func (r *fakeBookRepo) Update(_ context.Context, b *book.Book) error {
	stored, ok := r.books[b.ID]
	if !ok {
		return apperror.NewNotFound("book", b.ID)
	}
	qty := stored.StockQty
	cp := *b
	cp.StockQty = qty
	r.books[b.ID] = &cp
	return nil
}

func (r *fakeBookRepo) GetByID(_ context.Context, bookID id.ID) (*book.Book, error) {
	b, ok := r.books[bookID]
	if !ok {
		return nil, apperror.NewNotFound("book", bookID)
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookRepo) GetForUpdate(ctx context.Context, bookID id.ID) (*book.Book, error) {
	return r.GetByID(ctx, bookID)
}

func (r *fakeBookRepo) FindByNumber(_ context.Context, bookNo, volumeNo string) (*book.Book, error) {
	for _, b := range r.books {
		if b.BookNo == bookNo && b.VolumeNo == volumeNo {
			cp := *b
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("book", bookNo)
}

func (r *fakeBookRepo) SetStockQty(_ context.Context, bookID id.ID, qty int64) error {
	b, ok := r.books[bookID]
	if !ok {
		return apperror.NewNotFound("book", bookID)
	}
	b.StockQty = qty
	return nil
}

func (r *fakeBookRepo) ListBySupplier(_ context.Context, supplierID id.ID) ([]*book.Book, error) {
	return nil, nil
}

func (r *fakeBookRepo) List(_ context.Context, _, _ int) ([]*book.Book, error) {
	out := make([]*book.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	return out, nil
}

type fakeProfileRepo struct {
	profiles map[string]*customer.Profile
}

func newFakeProfileRepo(profiles ...*customer.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{profiles: make(map[string]*customer.Profile)}
	for _, p := range profiles {
		cp := *p
		r.profiles[p.CustomerID] = &cp
	}
	return r
}

func (r *fakeProfileRepo) Create(_ context.Context, p *customer.Profile) error {
	cp := *p
	r.profiles[p.CustomerID] = &cp
	return nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, customerID string) (*customer.Profile, error) {
	p, ok := r.profiles[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer profile", customerID)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) GetForUpdate(ctx context.Context, customerID string) (*customer.Profile, error) {
	return r.GetByID(ctx, customerID)
}

func (r *fakeProfileRepo) SetBalance(_ context.Context, customerID string, balance types.Money) error {
	p, ok := r.profiles[customerID]
	if !ok {
		return apperror.NewNotFound("customer profile", customerID)
	}
	p.Balance = balance
	return nil
}

func (r *fakeProfileRepo) Update(_ context.Context, p *customer.Profile) error {
	cp := *p
	r.profiles[p.CustomerID] = &cp
	return nil
}

type fakeOrderRepo struct {
	orders map[id.ID]*orders.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[id.ID]*orders.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *orders.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID id.ID) (*orders.Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	return o, nil
}

func (r *fakeOrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *fakeOrderRepo) SetStatus(_ context.Context, orderID id.ID, status orders.Status, paidAt *time.Time) error {
	o, ok := r.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID)
	}
	o.Status = status
	if paidAt != nil {
		o.PaidAt = paidAt
	}
	return nil
}

func (r *fakeOrderRepo) SaveShipment(_ context.Context, sh *orders.Shipment) error {
	o, ok := r.orders[sh.OrderID]
	if !ok {
		return apperror.NewNotFound("order", sh.OrderID)
	}
	o.Shipment = sh
	return nil
}

func (r *fakeOrderRepo) ListByCustomer(_ context.Context, customerID string, _, _ int) ([]*orders.Order, error) {
	var out []*orders.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeBackorderRepo struct {
	requests []*backorder.Request
}

func (r *fakeBackorderRepo) Create(_ context.Context, req *backorder.Request) error {
	r.requests = append(r.requests, req)
	return nil
}

func (r *fakeBackorderRepo) GetByID(_ context.Context, requestID id.ID) (*backorder.Request, error) {
	for _, req := range r.requests {
		if req.ID == requestID {
			return req, nil
		}
	}
	return nil, apperror.NewNotFound("backorder request", requestID)
}

func (r *fakeBackorderRepo) GetByIDs(_ context.Context, requestIDs []id.ID) ([]*backorder.Request, error) {
	var out []*backorder.Request
	for _, rid := range requestIDs {
		for _, req := range r.requests {
			if req.ID == rid {
				out = append(out, req)
			}
		}
	}
	return out, nil
}

func (r *fakeBackorderRepo) Update(_ context.Context, _ *backorder.Request) error { return nil }

func (r *fakeBackorderRepo) SetStatus(_ context.Context, requestIDs []id.ID, status backorder.Status, adminReply string) error {
	for _, rid := range requestIDs {
		for _, req := range r.requests {
			if req.ID == rid {
				req.Status = status
				req.AdminReply = adminReply
			}
		}
	}
	return nil
}

func (r *fakeBackorderRepo) ListOpenByBooks(_ context.Context, _ []id.ID, _ []backorder.Status) ([]*backorder.Request, error) {
	return nil, nil
}

func (r *fakeBackorderRepo) ListByCustomer(_ context.Context, _ string, _, _ int) ([]*backorder.Request, error) {
	return nil, nil
}

func (r *fakeBackorderRepo) ListByStatus(_ context.Context, _ []backorder.Status, _, _ int) ([]*backorder.Request, error) {
	return nil, nil
}

type fakeLedgerRepo struct {
	entries []ledger.Entry
}

func (r *fakeLedgerRepo) Append(_ context.Context, e ledger.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeLedgerRepo) ListByBook(_ context.Context, bookID id.ID, _ ledger.ListFilter) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range r.entries {
		if e.BookID == bookID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ListRecent(_ context.Context, _ int) ([]ledger.Entry, error) {
	return r.entries, nil
}

// --- fixtures ---

type fixture struct {
	engine     *Engine
	bookRepo   *fakeBookRepo
	profiles   *fakeProfileRepo
	orderRepo  *fakeOrderRepo
	backorders *fakeBackorderRepo
	ledgerRepo *fakeLedgerRepo
}

func newFixture(t *testing.T, books []*book.Book, profiles ...*customer.Profile) *fixture {
	t.Helper()

	bookRepo := newFakeBookRepo(books...)
	profileRepo := newFakeProfileRepo(profiles...)
	orderRepo := newFakeOrderRepo()
	backorders := &fakeBackorderRepo{}
	ledgerRepo := &fakeLedgerRepo{}
	inv := inventory.NewManager(bookRepo, ledger.NewRecorder(ledgerRepo))

	return &fixture{
		engine:     NewEngine(bookRepo, profileRepo, orderRepo, backorders, inv, fakeTxManager{}),
		bookRepo:   bookRepo,
		profiles:   profileRepo,
		orderRepo:  orderRepo,
		backorders: backorders,
		ledgerRepo: ledgerRepo,
	}
}

func profileWith(customerID string, balance string, tier credit.Tier, overdraftLimit string) *customer.Profile {
	p := customer.NewProfile(customerID)
	p.Balance = types.MustMoney(balance)
	p.CreditTier = tier
	p.OverdraftLimit = types.MustMoney(overdraftLimit)
	return p
}

func testBook(price string, stock int64) *book.Book {
	return &book.Book{
		ID:       id.New(),
		BookNo:   "BN-1",
		Title:    "Distributed Systems",
		Price:    types.MustMoney(price),
		StockQty: stock,
	}
}

var testReceiver = orders.Receiver{Name: "Pat Reader", Phone: "555-0101", Addr: "1 Library Way"}

// --- tests ---

func TestQuote_RoundsHalfAwayFromZero(t *testing.T) {
	// 88.00 × 2 × 0.85 = 149.60
	base, payable := Quote(types.MustMoney("88.00"), 2, credit.Tier3)
	assert.True(t, base.Equal(types.MustMoney("176.00")), "base was %s", base)
	assert.True(t, payable.Equal(types.MustMoney("149.60")), "payable was %s", payable)

	// 33.33 × 1 × 0.9 = 29.997 → 30.00
	_, payable = Quote(types.MustMoney("33.33"), 1, credit.Tier1)
	assert.True(t, payable.Equal(types.MustMoney("30.00")), "payable was %s", payable)

	// 19.99 × 3 × 0.75 = 44.9775 → 44.98
	_, payable = Quote(types.MustMoney("19.99"), 3, credit.Tier5)
	assert.True(t, payable.Equal(types.MustMoney("44.98")), "payable was %s", payable)
}

func TestAttemptPurchase_CommitsAllEffects(t *testing.T) {
	b := testBook("88.00", 10)
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "200.00", credit.Tier3, "0"))
	ctx := context.Background()

	out, err := f.engine.AttemptPurchase(ctx, "cust-1", b.ID, 2, testReceiver)
	require.NoError(t, err)
	require.Equal(t, StateCommitted, out.State)
	assert.True(t, out.Payable.Equal(types.MustMoney("149.60")), "payable was %s", out.Payable)

	// Balance debited by exactly the payable amount.
	p, err := f.profiles.GetByID(ctx, "cust-1")
	require.NoError(t, err)
	assert.True(t, p.Balance.Equal(types.MustMoney("50.40")), "balance was %s", p.Balance)

	// Stock decremented with a single ledger entry.
	stored, err := f.bookRepo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), stored.StockQty)
	require.Len(t, f.ledgerRepo.entries, 1)
	assert.Equal(t, ledger.ChangeSaleOut, f.ledgerRepo.entries[0].ChangeType)
	assert.Equal(t, int64(-2), f.ledgerRepo.entries[0].QtyChange)
	assert.Equal(t, int64(8), f.ledgerRepo.entries[0].QtyAfter)

	// One paid order with one item snapshotting the list price.
	o, err := f.orderRepo.GetByID(ctx, out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, o.Status)
	require.NotNil(t, o.PaidAt)
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(2), o.Items[0].Qty)
	assert.True(t, o.Items[0].UnitPrice.Equal(types.MustMoney("88.00")))
	assert.True(t, o.TotalAmount.Equal(types.MustMoney("149.60")))

	assert.Empty(t, f.backorders.requests)
}

func TestAttemptPurchase_InsufficientBalanceNoOverdraft(t *testing.T) {
	b := testBook("30.00", 5)
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "50.00", credit.Tier1, "0"))
	ctx := context.Background()

	// Tier 1: 30.00 × 2 × 0.9 = 54.00 > 50.00, no overdraft allowed.
	out, err := f.engine.AttemptPurchase(ctx, "cust-1", b.ID, 2, testReceiver)
	require.NoError(t, err, "rejection is an outcome, not an error")
	require.Equal(t, StateRejected, out.State)
	require.NotNil(t, out.Reason)
	assert.Equal(t, apperror.CodeInsufficientBalance, out.Reason.Code)

	// No mutation of any kind.
	p, _ := f.profiles.GetByID(ctx, "cust-1")
	assert.True(t, p.Balance.Equal(types.MustMoney("50.00")))
	stored, _ := f.bookRepo.GetByID(ctx, b.ID)
	assert.Equal(t, int64(5), stored.StockQty)
	assert.Empty(t, f.ledgerRepo.entries)
	assert.Empty(t, f.orderRepo.orders)
	assert.Empty(t, f.backorders.requests)
}

func TestAttemptPurchase_BoundedOverdraftWithinLimit(t *testing.T) {
	b := testBook("100.00", 5)
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "0.00", credit.Tier4, "100.00"))
	ctx := context.Background()

	// Tier 4: 100.00 × 0.8 = 80.00; balance goes to −80.00, within the limit.
	out, err := f.engine.AttemptPurchase(ctx, "cust-1", b.ID, 1, testReceiver)
	require.NoError(t, err)
	require.Equal(t, StateCommitted, out.State)

	p, _ := f.profiles.GetByID(ctx, "cust-1")
	assert.True(t, p.Balance.Equal(types.MustMoney("-80.00")), "balance was %s", p.Balance)
}

func TestAttemptPurchase_BoundedOverdraftExceeded(t *testing.T) {
	b := testBook("100.00", 5)
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "0.00", credit.Tier4, "100.00"))
	ctx := context.Background()

	// 2 × 100.00 × 0.8 = 160.00; balance would go to −160.00, past −100.00.
	out, err := f.engine.AttemptPurchase(ctx, "cust-1", b.ID, 2, testReceiver)
	require.NoError(t, err)
	require.Equal(t, StateRejected, out.State)
	assert.Equal(t, apperror.CodeOverdraftExceeded, out.Reason.Code)

	p, _ := f.profiles.GetByID(ctx, "cust-1")
	assert.True(t, p.Balance.Equal(types.MustMoney("0.00")))
	stored, _ := f.bookRepo.GetByID(ctx, b.ID)
	assert.Equal(t, int64(5), stored.StockQty)
}

func TestAttemptPurchase_UnlimitedOverdraftNeverRejects(t *testing.T) {
	b := testBook("500.00", 3)
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "-1000.00", credit.Tier5, "0"))
	ctx := context.Background()

	out, err := f.engine.AttemptPurchase(ctx, "cust-1", b.ID, 3, testReceiver)
	require.NoError(t, err)
	require.Equal(t, StateCommitted, out.State)

	// 3 × 500.00 × 0.75 = 1125.00; −1000.00 − 1125.00 = −2125.00.
	p, _ := f.profiles.GetByID(ctx, "cust-1")
	assert.True(t, p.Balance.Equal(types.MustMoney("-2125.00")), "balance was %s", p.Balance)
}

func TestAttemptPurchase_ShortfallRegistersBackorder(t *testing.T) {
	b := testBook("20.00", 1)
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "1000.00", credit.Tier2, "0"))
	ctx := context.Background()

	out, err := f.engine.AttemptPurchase(ctx, "cust-1", b.ID, 5, testReceiver)
	require.NoError(t, err)
	require.Equal(t, StateBackordered, out.State)
	assert.False(t, id.IsNil(out.RequestID))

	// Exactly one backorder, linked to the book, for the full quantity.
	require.Len(t, f.backorders.requests, 1)
	req := f.backorders.requests[0]
	assert.Equal(t, out.RequestID, req.ID)
	require.NotNil(t, req.BookID)
	assert.Equal(t, b.ID, *req.BookID)
	assert.Equal(t, int64(5), req.RequestedQty)
	assert.Equal(t, backorder.StatusSubmitted, req.Status)

	// No balance, stock, ledger or order mutation.
	p, _ := f.profiles.GetByID(ctx, "cust-1")
	assert.True(t, p.Balance.Equal(types.MustMoney("1000.00")))
	stored, _ := f.bookRepo.GetByID(ctx, b.ID)
	assert.Equal(t, int64(1), stored.StockQty)
	assert.Empty(t, f.ledgerRepo.entries)
	assert.Empty(t, f.orderRepo.orders)
}

func TestAttemptPurchase_FirstTimeBuyerGetsTier1Default(t *testing.T) {
	b := testBook("10.00", 5)
	f := newFixture(t, []*book.Book{b})
	ctx := context.Background()

	// Unknown customer, zero balance, tier 1: 10.00 × 0.9 = 9.00 > 0.00.
	out, err := f.engine.AttemptPurchase(ctx, "newcomer", b.ID, 1, testReceiver)
	require.NoError(t, err)
	require.Equal(t, StateRejected, out.State)
	assert.Equal(t, apperror.CodeInsufficientBalance, out.Reason.Code)

	// The attempt created the profile with tier-1 defaults.
	p, err := f.profiles.GetByID(ctx, "newcomer")
	require.NoError(t, err)
	assert.Equal(t, credit.Tier1, p.CreditTier)
	assert.True(t, p.Balance.IsZero())
}

func TestAttemptPurchase_ValidatesInput(t *testing.T) {
	b := testBook("10.00", 5)
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "100.00", credit.Tier1, "0"))
	ctx := context.Background()

	_, err := f.engine.AttemptPurchase(ctx, "", b.ID, 1, testReceiver)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))

	_, err = f.engine.AttemptPurchase(ctx, "cust-1", b.ID, 0, testReceiver)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.engine.AttemptPurchase(ctx, "cust-1", b.ID, 1, orders.Receiver{Name: "x"})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.engine.AttemptPurchase(ctx, "cust-1", id.New(), 1, testReceiver)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCheckoutCart_CreatesUnpaidOrderAtListPrice(t *testing.T) {
	b1 := testBook("15.00", 10)
	b2 := &book.Book{ID: id.New(), BookNo: "BN-2", Title: "Go Patterns", Price: types.MustMoney("25.50"), StockQty: 4}
	f := newFixture(t, []*book.Book{b1, b2}, profileWith("cust-1", "0.00", credit.Tier5, "0"))
	ctx := context.Background()

	orderID, err := f.engine.CheckoutCart(ctx, "cust-1", []CartLine{
		{BookID: b1.ID, Qty: 2},
		{BookID: b2.ID, Qty: 1},
	}, testReceiver)
	require.NoError(t, err)

	o, err := f.orderRepo.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCreated, o.Status)
	assert.Nil(t, o.PaidAt)
	require.Len(t, o.Items, 2)
	// No discount on cart checkout: 2×15.00 + 25.50 = 55.50.
	assert.True(t, o.TotalAmount.Equal(types.MustMoney("55.50")), "total was %s", o.TotalAmount)

	// Balance untouched even for a discounted tier.
	p, _ := f.profiles.GetByID(ctx, "cust-1")
	assert.True(t, p.Balance.IsZero())

	// Stock decremented per line, one ledger entry each.
	s1, _ := f.bookRepo.GetByID(ctx, b1.ID)
	s2, _ := f.bookRepo.GetByID(ctx, b2.ID)
	assert.Equal(t, int64(8), s1.StockQty)
	assert.Equal(t, int64(3), s2.StockQty)
	assert.Len(t, f.ledgerRepo.entries, 2)
}

func TestCheckoutCart_InsufficientStockFailsWholeCart(t *testing.T) {
	b1 := testBook("15.00", 10)
	b2 := &book.Book{ID: id.New(), BookNo: "BN-2", Title: "Go Patterns", Price: types.MustMoney("25.50"), StockQty: 1}
	f := newFixture(t, []*book.Book{b1, b2}, profileWith("cust-1", "100.00", credit.Tier1, "0"))
	ctx := context.Background()

	_, err := f.engine.CheckoutCart(ctx, "cust-1", []CartLine{
		{BookID: b1.ID, Qty: 2},
		{BookID: b2.ID, Qty: 5},
	}, testReceiver)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.Empty(t, f.orderRepo.orders)
}

func TestCheckoutCart_ValidatesInput(t *testing.T) {
	b := testBook("15.00", 10)
	f := newFixture(t, []*book.Book{b})
	ctx := context.Background()

	_, err := f.engine.CheckoutCart(ctx, "cust-1", nil, testReceiver)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.engine.CheckoutCart(ctx, "cust-1", []CartLine{{BookID: b.ID, Qty: -1}}, testReceiver)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestPayOrder_DebitsFullTotalAndMarksPaid(t *testing.T) {
	b := testBook("20.00", 10)
	// Tier 4 gets a buy-now discount; cart orders settle at list price anyway.
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "50.00", credit.Tier4, "0"))
	ctx := context.Background()

	orderID, err := f.engine.CheckoutCart(ctx, "cust-1", []CartLine{{BookID: b.ID, Qty: 2}}, testReceiver)
	require.NoError(t, err)

	o, err := f.engine.PayOrder(ctx, "cust-1", orderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, o.Status)
	require.NotNil(t, o.PaidAt)

	// 2 × 20.00 = 40.00 debited, no discount.
	p, _ := f.profiles.GetByID(ctx, "cust-1")
	assert.True(t, p.Balance.Equal(types.MustMoney("10.00")), "balance was %s", p.Balance)
}

func TestPayOrder_OtherCustomerGetsNotFound(t *testing.T) {
	b := testBook("20.00", 10)
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "50.00", credit.Tier1, "0"))
	ctx := context.Background()

	orderID, err := f.engine.CheckoutCart(ctx, "cust-1", []CartLine{{BookID: b.ID, Qty: 1}}, testReceiver)
	require.NoError(t, err)

	// Another customer probing the order learns nothing about it.
	_, err = f.engine.PayOrder(ctx, "cust-2", orderID)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestPayOrder_AlreadyPaidIsInvalidState(t *testing.T) {
	b := testBook("20.00", 10)
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "100.00", credit.Tier1, "0"))
	ctx := context.Background()

	orderID, err := f.engine.CheckoutCart(ctx, "cust-1", []CartLine{{BookID: b.ID, Qty: 1}}, testReceiver)
	require.NoError(t, err)

	_, err = f.engine.PayOrder(ctx, "cust-1", orderID)
	require.NoError(t, err)

	_, err = f.engine.PayOrder(ctx, "cust-1", orderID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))

	// First debit stands, no double charge.
	p, _ := f.profiles.GetByID(ctx, "cust-1")
	assert.True(t, p.Balance.Equal(types.MustMoney("80.00")), "balance was %s", p.Balance)
}

func TestPayOrder_InsufficientBalanceNoOverdraft(t *testing.T) {
	b := testBook("30.00", 10)
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "20.00", credit.Tier1, "0"))
	ctx := context.Background()

	orderID, err := f.engine.CheckoutCart(ctx, "cust-1", []CartLine{{BookID: b.ID, Qty: 1}}, testReceiver)
	require.NoError(t, err)

	_, err = f.engine.PayOrder(ctx, "cust-1", orderID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientBalance))

	// Order stays created and payable, balance untouched.
	o, _ := f.orderRepo.GetByID(ctx, orderID)
	assert.Equal(t, orders.StatusCreated, o.Status)
	p, _ := f.profiles.GetByID(ctx, "cust-1")
	assert.True(t, p.Balance.Equal(types.MustMoney("20.00")))
}

func TestPayOrder_BoundedOverdraftApplies(t *testing.T) {
	b := testBook("100.00", 10)
	f := newFixture(t, []*book.Book{b}, profileWith("cust-1", "0.00", credit.Tier4, "100.00"))
	ctx := context.Background()

	orderID, err := f.engine.CheckoutCart(ctx, "cust-1", []CartLine{{BookID: b.ID, Qty: 1}}, testReceiver)
	require.NoError(t, err)

	// List price 100.00 takes the balance to −100.00, exactly at the limit.
	o, err := f.engine.PayOrder(ctx, "cust-1", orderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, o.Status)

	p, _ := f.profiles.GetByID(ctx, "cust-1")
	assert.True(t, p.Balance.Equal(types.MustMoney("-100.00")), "balance was %s", p.Balance)

	// A second identical order would breach the limit.
	secondID, err := f.engine.CheckoutCart(ctx, "cust-1", []CartLine{{BookID: b.ID, Qty: 1}}, testReceiver)
	require.NoError(t, err)
	_, err = f.engine.PayOrder(ctx, "cust-1", secondID)
	assert.True(t, apperror.IsCode(err, apperror.CodeOverdraftExceeded))
}

// serialTxManager runs its transactions one at a time, standing in for the
// database executing conflicting serializable units sequentially. Every
// repo access in the engine happens inside a transaction, so the mutex
// also makes the map-backed fakes safe under concurrent callers.
type serialTxManager struct {
	mu sync.Mutex
}

func (m *serialTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

func (m *serialTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

func TestAttemptPurchase_ConcurrentBuyersNeverOversell(t *testing.T) {
	const buyers = 8
	b := testBook("10.00", 3)

	profiles := make([]*customer.Profile, buyers)
	for i := range profiles {
		profiles[i] = profileWith(fmt.Sprintf("cust-%d", i), "1000.00", credit.Tier1, "0")
	}

	bookRepo := newFakeBookRepo(b)
	profileRepo := newFakeProfileRepo(profiles...)
	orderRepo := newFakeOrderRepo()
	backorders := &fakeBackorderRepo{}
	ledgerRepo := &fakeLedgerRepo{}
	inv := inventory.NewManager(bookRepo, ledger.NewRecorder(ledgerRepo))
	engine := NewEngine(bookRepo, profileRepo, orderRepo, backorders, inv, &serialTxManager{})

	var wg sync.WaitGroup
	outcomes := make([]Outcome, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := engine.AttemptPurchase(context.Background(),
				fmt.Sprintf("cust-%d", i), b.ID, 1, testReceiver)
			assert.NoError(t, err)
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	committed, backordered := 0, 0
	for _, out := range outcomes {
		switch out.State {
		case StateCommitted:
			committed++
		case StateBackordered:
			backordered++
		}
	}
	assert.Equal(t, 3, committed, "exactly the available copies sell")
	assert.Equal(t, buyers-3, backordered, "every losing buyer gets a backorder")

	stored, _ := bookRepo.GetByID(context.Background(), b.ID)
	assert.Equal(t, int64(0), stored.StockQty)
	assert.Len(t, ledgerRepo.entries, 3)
	assert.Len(t, backorders.requests, buyers-3)
}
