package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	orders map[id.ID]*Order
}

func newFakeRepo(os ...*Order) *fakeRepo {
	r := &fakeRepo{orders: make(map[id.ID]*Order)}
	for _, o := range os {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, o *Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, orderID id.ID) (*Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	return o, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *fakeRepo) SetStatus(_ context.Context, orderID id.ID, status Status, paidAt *time.Time) error {
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

func (r *fakeRepo) SaveShipment(_ context.Context, sh *Shipment) error {
	o, ok := r.orders[sh.OrderID]
	if !ok {
		return apperror.NewNotFound("order", sh.OrderID)
	}
	o.Shipment = sh
	return nil
}

func (r *fakeRepo) ListByCustomer(_ context.Context, customerID string, _, _ int) ([]*Order, error) {
	var out []*Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func testOrder(status Status) *Order {
	o := New("cust-1", Receiver{Name: "Pat Reader", Phone: "555-0101", Addr: "1 Library Way"})
	o.AddItem(id.New(), 1, types.MustMoney("20.00"))
	o.Status = status
	return o
}

func TestStatusCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusCreated, StatusPaid, true},
		{StatusPaid, StatusPacked, true},
		{StatusPacked, StatusShipped, true},
		{StatusShipped, StatusCompleted, true},
		{StatusCreated, StatusCancelled, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPacked, StatusCancelled, true},
		{StatusShipped, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCreated, StatusShipped, false},
		{StatusPaid, StatusCompleted, false},
		{StatusCancelled, StatusPaid, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestPackShipComplete(t *testing.T) {
	o := testOrder(StatusPaid)
	repo := newFakeRepo(o)
	svc := NewService(repo, fakeTxManager{})
	ctx := context.Background()

	require.NoError(t, svc.Pack(ctx, o.ID))
	assert.Equal(t, StatusPacked, o.Status)

	require.NoError(t, svc.Ship(ctx, o.ID, "UPS", "1Z999"))
	assert.Equal(t, StatusShipped, o.Status)
	require.NotNil(t, o.Shipment)
	assert.Equal(t, "UPS", o.Shipment.Carrier)
	assert.Equal(t, "1Z999", o.Shipment.TrackingNo)
	require.NotNil(t, o.Shipment.ShippedAt)

	require.NoError(t, svc.Complete(ctx, o.ID))
	assert.Equal(t, StatusCompleted, o.Status)
}

func TestShip_RequiresCarrier(t *testing.T) {
	o := testOrder(StatusPacked)
	svc := NewService(newFakeRepo(o), fakeTxManager{})

	err := svc.Ship(context.Background(), o.ID, "", "1Z999")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Equal(t, StatusPacked, o.Status)
}

func TestShip_RejectsUnpackedOrder(t *testing.T) {
	o := testOrder(StatusCreated)
	svc := NewService(newFakeRepo(o), fakeTxManager{})

	err := svc.Ship(context.Background(), o.ID, "UPS", "")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	assert.Nil(t, o.Shipment)
}

func TestCancel_AllowedUntilShipped(t *testing.T) {
	svc := func(o *Order) *Service { return NewService(newFakeRepo(o), fakeTxManager{}) }
	ctx := context.Background()

	o := testOrder(StatusPaid)
	require.NoError(t, svc(o).Cancel(ctx, o.ID))
	assert.Equal(t, StatusCancelled, o.Status)

	o = testOrder(StatusShipped)
	err := svc(o).Cancel(ctx, o.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	assert.Equal(t, StatusShipped, o.Status)
}
