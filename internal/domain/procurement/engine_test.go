package procurement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/backorder"
	"bookstore/internal/domain/catalogs/book"
	"bookstore/internal/domain/catalogs/supplier"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/domain/ledger"
)

// --- fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePORepo struct {
	orders map[id.ID]*PurchaseOrder
}

func newFakePORepo() *fakePORepo {
	return &fakePORepo{orders: make(map[id.ID]*PurchaseOrder)}
}

func (r *fakePORepo) Create(_ context.Context, po *PurchaseOrder) error {
	cp := *po
	cp.Lines = append([]Line(nil), po.Lines...)
	r.orders[po.ID] = &cp
	return nil
}

func (r *fakePORepo) GetByID(_ context.Context, poID id.ID) (*PurchaseOrder, error) {
	po, ok := r.orders[poID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", poID)
	}
	cp := *po
	cp.Lines = append([]Line(nil), po.Lines...)
	return &cp, nil
}

func (r *fakePORepo) GetForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return r.GetByID(ctx, poID)
}

func (r *fakePORepo) SetStatus(_ context.Context, po *PurchaseOrder) error {
	stored, ok := r.orders[po.ID]
	if !ok {
		return apperror.NewNotFound("purchase order", po.ID)
	}
	stored.Status = po.Status
	stored.ReceivedAt = po.ReceivedAt
	return nil
}

func (r *fakePORepo) ListBySupplier(_ context.Context, supplierID id.ID, _, _ int) ([]*PurchaseOrder, error) {
	var out []*PurchaseOrder
	for _, po := range r.orders {
		if po.SupplierID == supplierID {
			out = append(out, po)
		}
	}
	return out, nil
}

func (r *fakePORepo) List(_ context.Context, _, _ int) ([]*PurchaseOrder, error) {
	out := make([]*PurchaseOrder, 0, len(r.orders))
	for _, po := range r.orders {
		out = append(out, po)
	}
	return out, nil
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
	var out []*book.Book
	for _, b := range r.books {
		if b.SupplierID != nil && *b.SupplierID == supplierID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookRepo) List(_ context.Context, _, _ int) ([]*book.Book, error) {
	out := make([]*book.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	return out, nil
}

type fakeSupplierRepo struct {
	suppliers map[id.ID]*supplier.Supplier
}

func newFakeSupplierRepo(suppliers ...*supplier.Supplier) *fakeSupplierRepo {
	r := &fakeSupplierRepo{suppliers: make(map[id.ID]*supplier.Supplier)}
	for _, s := range suppliers {
		r.suppliers[s.ID] = s
	}
	return r
}

func (r *fakeSupplierRepo) Create(_ context.Context, s *supplier.Supplier) error {
	r.suppliers[s.ID] = s
	return nil
}

func (r *fakeSupplierRepo) Update(_ context.Context, s *supplier.Supplier) error {
	r.suppliers[s.ID] = s
	return nil
}

func (r *fakeSupplierRepo) GetByID(_ context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	s, ok := r.suppliers[supplierID]
	if !ok {
		return nil, apperror.NewNotFound("supplier", supplierID)
	}
	return s, nil
}

func (r *fakeSupplierRepo) ListActive(_ context.Context) ([]*supplier.Supplier, error) {
	var out []*supplier.Supplier
	for _, s := range r.suppliers {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeBackorderRepo struct {
	requests map[id.ID]*backorder.Request
}

func newFakeBackorderRepo(requests ...*backorder.Request) *fakeBackorderRepo {
	r := &fakeBackorderRepo{requests: make(map[id.ID]*backorder.Request)}
	for _, req := range requests {
		r.requests[req.ID] = req
	}
	return r
}

func (r *fakeBackorderRepo) Create(_ context.Context, req *backorder.Request) error {
	r.requests[req.ID] = req
	return nil
}

func (r *fakeBackorderRepo) GetByID(_ context.Context, requestID id.ID) (*backorder.Request, error) {
	req, ok := r.requests[requestID]
	if !ok {
		return nil, apperror.NewNotFound("backorder request", requestID)
	}
	return req, nil
}

func (r *fakeBackorderRepo) GetByIDs(_ context.Context, requestIDs []id.ID) ([]*backorder.Request, error) {
	var out []*backorder.Request
	for _, rid := range requestIDs {
		if req, ok := r.requests[rid]; ok {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeBackorderRepo) Update(_ context.Context, req *backorder.Request) error {
	r.requests[req.ID] = req
	return nil
}

func (r *fakeBackorderRepo) SetStatus(_ context.Context, requestIDs []id.ID, status backorder.Status, adminReply string) error {
	for _, rid := range requestIDs {
		if req, ok := r.requests[rid]; ok {
			req.Status = status
			req.AdminReply = adminReply
		}
	}
	return nil
}

func (r *fakeBackorderRepo) ListOpenByBooks(_ context.Context, bookIDs []id.ID, statuses []backorder.Status) ([]*backorder.Request, error) {
	want := make(map[id.ID]struct{}, len(bookIDs))
	for _, bid := range bookIDs {
		want[bid] = struct{}{}
	}
	var out []*backorder.Request
	for _, req := range r.requests {
		if req.BookID == nil {
			continue
		}
		if _, ok := want[*req.BookID]; !ok {
			continue
		}
		for _, st := range statuses {
			if req.Status == st {
				out = append(out, req)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeBackorderRepo) ListByCustomer(_ context.Context, customerID string, _, _ int) ([]*backorder.Request, error) {
	var out []*backorder.Request
	for _, req := range r.requests {
		if req.CustomerID == customerID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeBackorderRepo) ListByStatus(_ context.Context, statuses []backorder.Status, _, _ int) ([]*backorder.Request, error) {
	var out []*backorder.Request
	for _, req := range r.requests {
		for _, st := range statuses {
			if req.Status == st {
				out = append(out, req)
				break
			}
		}
	}
	return out, nil
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
	poRepo     *fakePORepo
	bookRepo   *fakeBookRepo
	backorders *fakeBackorderRepo
	ledgerRepo *fakeLedgerRepo
	supplier   *supplier.Supplier
}

func newFixture(t *testing.T, books ...*book.Book) *fixture {
	t.Helper()

	sup := &supplier.Supplier{ID: id.New(), Name: "Acme Books", IsActive: true}
	poRepo := newFakePORepo()
	bookRepo := newFakeBookRepo(books...)
	backorders := newFakeBackorderRepo()
	ledgerRepo := &fakeLedgerRepo{}
	inv := inventory.NewManager(bookRepo, ledger.NewRecorder(ledgerRepo))

	return &fixture{
		engine:     NewEngine(poRepo, bookRepo, newFakeSupplierRepo(sup), backorders, inv, fakeTxManager{}),
		poRepo:     poRepo,
		bookRepo:   bookRepo,
		backorders: backorders,
		ledgerRepo: ledgerRepo,
		supplier:   sup,
	}
}

func testBook(stock int64) *book.Book {
	return &book.Book{
		ID:       id.New(),
		BookNo:   "BN-1",
		Title:    "Testing in Production",
		Price:    types.MustMoney("30.00"),
		StockQty: stock,
	}
}

// --- tests ---

func TestCreateManual_MergesDuplicateBookLines(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)

	po, err := f.engine.CreateManual(context.Background(), f.supplier.ID, []LineInput{
		{BookID: b.ID, Qty: 3},
		{BookID: b.ID, Qty: 4},
	})
	require.NoError(t, err)

	require.Len(t, po.Lines, 1)
	assert.Equal(t, int64(7), po.Lines[0].Qty)
	assert.Equal(t, StatusCreated, po.Status)
	assert.True(t, po.Lines[0].UnitCost.Equal(b.Price), "zero cost falls back to list price")
}

func TestCreateManual_RejectsInactiveSupplier(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)
	f.supplier.IsActive = false

	_, err := f.engine.CreateManual(context.Background(), f.supplier.ID, []LineInput{
		{BookID: b.ID, Qty: 1},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestCreateFromRequests_RejectsBatchOnUnresolvedBook(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)

	resolved := backorder.New("cust-1", &b.ID, b.Title, 2, "")
	unresolved := backorder.New("cust-2", nil, "Some Rare Title", 1, "")
	require.NoError(t, f.backorders.Create(context.Background(), resolved))
	require.NoError(t, f.backorders.Create(context.Background(), unresolved))

	_, err := f.engine.CreateFromRequests(context.Background(), f.supplier.ID,
		[]id.ID{resolved.ID, unresolved.ID}, types.Money{}, true)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnresolvedBook))

	// Nothing was created and the resolved request is untouched.
	assert.Empty(t, f.poRepo.orders)
	assert.Equal(t, backorder.StatusSubmitted, resolved.Status)
}

func TestCreateFromRequests_MergesAndMarksOrdered(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)

	first := backorder.New("cust-1", &b.ID, b.Title, 2, "")
	second := backorder.New("cust-2", &b.ID, b.Title, 5, "")
	require.NoError(t, f.backorders.Create(context.Background(), first))
	require.NoError(t, f.backorders.Create(context.Background(), second))

	po, err := f.engine.CreateFromRequests(context.Background(), f.supplier.ID,
		[]id.ID{first.ID, second.ID}, types.MustMoney("9.90"), true)
	require.NoError(t, err)

	require.Len(t, po.Lines, 1)
	assert.Equal(t, int64(7), po.Lines[0].Qty)
	assert.True(t, po.Lines[0].UnitCost.Equal(types.MustMoney("9.90")),
		"negotiated cost applies to the merged line, cost was %s", po.Lines[0].UnitCost)
	assert.Equal(t, backorder.StatusOrdered, first.Status)
	assert.Equal(t, backorder.StatusOrdered, second.Status)
	assert.Contains(t, first.AdminReply, po.ID.String())
}

func TestCreateFromRequests_ZeroCostFallsBackToListPrice(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)

	req := backorder.New("cust-1", &b.ID, b.Title, 2, "")
	require.NoError(t, f.backorders.Create(context.Background(), req))

	po, err := f.engine.CreateFromRequests(context.Background(), f.supplier.ID,
		[]id.ID{req.ID}, types.Money{}, true)
	require.NoError(t, err)

	require.Len(t, po.Lines, 1)
	assert.True(t, po.Lines[0].UnitCost.Equal(b.Price))
}

func TestCreateFromRequests_WithoutMarkOrderedLeavesRequestsOpen(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)

	req := backorder.New("cust-1", &b.ID, b.Title, 2, "")
	require.NoError(t, f.backorders.Create(context.Background(), req))

	po, err := f.engine.CreateFromRequests(context.Background(), f.supplier.ID,
		[]id.ID{req.ID}, types.Money{}, false)
	require.NoError(t, err)

	require.Len(t, po.Lines, 1)
	assert.Equal(t, backorder.StatusSubmitted, req.Status)
	assert.Empty(t, req.AdminReply)
}

func TestCreateFromRequests_DedupesRequestIDs(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)

	req := backorder.New("cust-1", &b.ID, b.Title, 3, "")
	require.NoError(t, f.backorders.Create(context.Background(), req))

	// The same id twice is one request, not a missing one.
	po, err := f.engine.CreateFromRequests(context.Background(), f.supplier.ID,
		[]id.ID{req.ID, req.ID}, types.Money{}, true)
	require.NoError(t, err)

	require.Len(t, po.Lines, 1)
	assert.Equal(t, int64(3), po.Lines[0].Qty)
	assert.Equal(t, backorder.StatusOrdered, req.Status)
}

func TestReceive_PostsStockAndLedger(t *testing.T) {
	b := testBook(10)
	f := newFixture(t, b)
	ctx := context.Background()

	po, err := f.engine.CreateManual(ctx, f.supplier.ID, []LineInput{{BookID: b.ID, Qty: 25}})
	require.NoError(t, err)

	received, err := f.engine.Receive(ctx, po.ID, "", true)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, received.Status)
	require.NotNil(t, received.ReceivedAt)

	stored, err := f.bookRepo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(35), stored.StockQty)

	require.Len(t, f.ledgerRepo.entries, 1)
	entry := f.ledgerRepo.entries[0]
	assert.Equal(t, ledger.ChangePurchaseIn, entry.ChangeType)
	assert.Equal(t, int64(25), entry.QtyChange)
	assert.Equal(t, int64(35), entry.QtyAfter)
}

func TestReceive_IsIdempotent(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)
	ctx := context.Background()

	po, err := f.engine.CreateManual(ctx, f.supplier.ID, []LineInput{{BookID: b.ID, Qty: 5}})
	require.NoError(t, err)

	_, err = f.engine.Receive(ctx, po.ID, "", true)
	require.NoError(t, err)
	again, err := f.engine.Receive(ctx, po.ID, "", true)
	require.NoError(t, err)

	assert.Equal(t, StatusReceived, again.Status)

	stored, err := f.bookRepo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.StockQty, "second receive must not double-count")
	assert.Len(t, f.ledgerRepo.entries, 1, "second receive must not write a ledger entry")
}

func TestReceive_CompletesOpenBackorders(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)
	ctx := context.Background()

	req := backorder.New("cust-1", &b.ID, b.Title, 3, "")
	require.NoError(t, f.backorders.Create(ctx, req))

	po, err := f.engine.CreateFromRequests(ctx, f.supplier.ID, []id.ID{req.ID}, types.Money{}, true)
	require.NoError(t, err)
	require.Equal(t, backorder.StatusOrdered, req.Status)

	_, err = f.engine.Receive(ctx, po.ID, "", true)
	require.NoError(t, err)

	assert.Equal(t, backorder.StatusCompleted, req.Status)
	assert.Contains(t, req.AdminReply, po.ID.String())
}

func TestManualStockIn_CreatesReceivedOrder(t *testing.T) {
	b := testBook(2)
	f := newFixture(t, b)
	ctx := context.Background()

	po, err := f.engine.ManualStockIn(ctx, f.supplier.ID, []LineInput{
		{BookID: b.ID, Qty: 8, UnitCost: types.MustMoney("12.50")},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, StatusReceived, po.Status)
	require.NotNil(t, po.ReceivedAt)

	stored, err := f.bookRepo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored.StockQty)
	assert.True(t, po.Lines[0].UnitCost.Equal(types.MustMoney("12.50")))
}

func TestCreateManual_RejectsQtyOutOfRange(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)

	_, err := f.engine.CreateManual(context.Background(), f.supplier.ID, []LineInput{
		{BookID: b.ID, Qty: 0},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestReceive_NoteOverridesGeneratedLedgerText(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)
	ctx := context.Background()

	po, err := f.engine.CreateManual(ctx, f.supplier.ID, []LineInput{{BookID: b.ID, Qty: 4}})
	require.NoError(t, err)

	_, err = f.engine.Receive(ctx, po.ID, "invoice 2026-117, dock B", true)
	require.NoError(t, err)

	require.Len(t, f.ledgerRepo.entries, 1)
	assert.Equal(t, "invoice 2026-117, dock B", f.ledgerRepo.entries[0].Note)
}

func TestReceive_BlankNoteGetsGeneratedText(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)
	ctx := context.Background()

	po, err := f.engine.CreateManual(ctx, f.supplier.ID, []LineInput{{BookID: b.ID, Qty: 4}})
	require.NoError(t, err)

	_, err = f.engine.Receive(ctx, po.ID, "", true)
	require.NoError(t, err)

	require.Len(t, f.ledgerRepo.entries, 1)
	assert.Contains(t, f.ledgerRepo.entries[0].Note, po.ID.String())
}

func TestReceive_LeavesBackordersOpenWhenNotClosing(t *testing.T) {
	b := testBook(0)
	f := newFixture(t, b)
	ctx := context.Background()

	req := backorder.New("cust-1", &b.ID, b.Title, 3, "")
	require.NoError(t, f.backorders.Create(ctx, req))

	po, err := f.engine.CreateFromRequests(ctx, f.supplier.ID, []id.ID{req.ID}, types.Money{}, true)
	require.NoError(t, err)

	_, err = f.engine.Receive(ctx, po.ID, "", false)
	require.NoError(t, err)

	// Stock is in, but the request stays for a manual reply.
	assert.Equal(t, backorder.StatusOrdered, req.Status)
	stored, _ := f.bookRepo.GetByID(ctx, b.ID)
	assert.Equal(t, int64(3), stored.StockQty)
}
