package customer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/credit"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	profiles map[string]*Profile
}

func newFakeRepo(profiles ...*Profile) *fakeRepo {
	r := &fakeRepo{profiles: make(map[string]*Profile)}
	for _, p := range profiles {
		r.profiles[p.CustomerID] = p
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, p *Profile) error {
	r.profiles[p.CustomerID] = p
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, customerID string) (*Profile, error) {
	p, ok := r.profiles[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer profile", customerID)
	}
	return p, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, customerID string) (*Profile, error) {
	return r.GetByID(ctx, customerID)
}

func (r *fakeRepo) SetBalance(_ context.Context, customerID string, balance types.Money) error {
	p, ok := r.profiles[customerID]
	if !ok {
		return apperror.NewNotFound("customer profile", customerID)
	}
	p.Balance = balance
	return nil
}

func (r *fakeRepo) Update(_ context.Context, p *Profile) error {
	r.profiles[p.CustomerID] = p
	return nil
}

type fakeAuditor struct {
	records []string
}

func (a *fakeAuditor) Record(_ context.Context, entityType, entityID, action string, _ any) error {
	a.records = append(a.records, entityType+"/"+entityID+"/"+action)
	return nil
}

func TestGetOrCreate_DefaultsToTier1(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeTxManager{}, nil)

	p, err := svc.GetOrCreate(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, credit.Tier1, p.CreditTier)
	assert.True(t, p.Balance.IsZero())
	assert.True(t, p.OverdraftLimit.IsZero())

	again, err := svc.GetOrCreate(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Same(t, p, again)
}

func TestRecharge_AddsToBalance(t *testing.T) {
	p := NewProfile("cust-1")
	p.Balance = types.MustMoney("10.50")
	svc := NewService(newFakeRepo(p), fakeTxManager{}, nil)

	updated, err := svc.Recharge(context.Background(), "cust-1", types.MustMoney("39.50"))
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(types.MustMoney("50.00")), "balance was %s", updated.Balance)
}

func TestRecharge_RejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newFakeRepo(NewProfile("cust-1")), fakeTxManager{}, nil)

	_, err := svc.Recharge(context.Background(), "cust-1", types.MustMoney("0"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.Recharge(context.Background(), "cust-1", types.MustMoney("-5"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRecharge_CreatesProfileOnFirstUse(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeTxManager{}, nil)

	p, err := svc.Recharge(context.Background(), "newcomer", types.MustMoney("25.00"))
	require.NoError(t, err)
	assert.True(t, p.Balance.Equal(types.MustMoney("25.00")))
	assert.Equal(t, credit.Tier1, p.CreditTier)
}

func TestSetCredit_UpdatesAndAudits(t *testing.T) {
	p := NewProfile("cust-1")
	auditor := &fakeAuditor{}
	svc := NewService(newFakeRepo(p), fakeTxManager{}, auditor)

	updated, err := svc.SetCredit(context.Background(), "cust-1", credit.Tier4, types.MustMoney("200.00"))
	require.NoError(t, err)
	assert.Equal(t, credit.Tier4, updated.CreditTier)
	assert.True(t, updated.OverdraftLimit.Equal(types.MustMoney("200.00")))

	require.Len(t, auditor.records, 1)
	assert.Equal(t, "customer_profile/cust-1/set_credit", auditor.records[0])
}

func TestSetCredit_RejectsInvalidInput(t *testing.T) {
	svc := NewService(newFakeRepo(NewProfile("cust-1")), fakeTxManager{}, nil)
	ctx := context.Background()

	_, err := svc.SetCredit(ctx, "cust-1", credit.Tier(0), types.ZeroMoney())
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.SetCredit(ctx, "cust-1", credit.Tier(6), types.ZeroMoney())
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.SetCredit(ctx, "cust-1", credit.Tier2, types.MustMoney("-1"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
