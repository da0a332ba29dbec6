package accounts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"lexinsight-service/internal/domain/account"
	xerrors "lexinsight-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccountStore struct {
	acc     *account.Account
	updates int

	// Forces every entitlement write to lose its version check.
	conflictAll bool
}

func (f *fakeAccountStore) FindByID(_ context.Context, id int64) (*account.Account, error) {
	if f.acc == nil || f.acc.ID != id {
		return nil, xerrors.ErrNotFound
	}
	cp := *f.acc
	return &cp, nil
}

func (f *fakeAccountStore) UpdateEntitlement(_ context.Context, _ int64, ent account.Entitlement) (account.Entitlement, error) {
	f.updates++
	if f.conflictAll || ent.Version != f.acc.Version {
		return ent, xerrors.ErrVersionConflict
	}
	ent.Version++
	f.acc.Entitlement = ent
	return ent, nil
}

func (f *fakeAccountStore) List(_ context.Context, _, _ int) ([]*account.Account, int64, error) {
	if f.acc == nil {
		return nil, 0, nil
	}
	cp := *f.acc
	return []*account.Account{&cp}, 1, nil
}

type fakeLocker struct {
	calls int
}

func (f *fakeLocker) WithAccountLock(_ context.Context, _ int64, _ time.Duration, fn func() error) error {
	f.calls++
	return fn()
}

func adminTarget() *account.Account {
	return &account.Account{
		ID:       7,
		Email:    "managing.partner@firm.example",
		FirmName: "Hale & Murrow LLP",
		Entitlement: account.Entitlement{
			SubscriptionStatus: account.SubscriptionStatusTrial,
			SubscriptionType:   account.PlanTypeNone,
			TrialLimit:         3,
			Version:            1,
		},
	}
}

func TestGrantCredits(t *testing.T) {
	store := &fakeAccountStore{acc: adminTarget()}
	locker := &fakeLocker{}
	svc := NewAccountService(store, locker, zap.NewNop())

	updated, err := svc.GrantCredits(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.OneTimeReportsPurchased)
	assert.Equal(t, 5, store.acc.OneTimeReportsPurchased)
	assert.Equal(t, 1, locker.calls)
}

func TestGrantCreditsRejectsNonPositive(t *testing.T) {
	store := &fakeAccountStore{acc: adminTarget()}
	svc := NewAccountService(store, &fakeLocker{}, zap.NewNop())

	_, err := svc.GrantCredits(context.Background(), 7, 0)
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
	assert.Equal(t, 0, store.updates)
}

func TestGrantCreditsUnknownAccount(t *testing.T) {
	store := &fakeAccountStore{acc: adminTarget()}
	svc := NewAccountService(store, &fakeLocker{}, zap.NewNop())

	_, err := svc.GrantCredits(context.Background(), 404, 2)
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))
}

func TestGrantCreditsVersionConflictPropagates(t *testing.T) {
	store := &fakeAccountStore{acc: adminTarget(), conflictAll: true}
	svc := NewAccountService(store, &fakeLocker{}, zap.NewNop())

	_, err := svc.GrantCredits(context.Background(), 7, 2)
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrVersionConflict))
	assert.Equal(t, 0, store.acc.OneTimeReportsPurchased)
}

func TestSetSubscription(t *testing.T) {
	store := &fakeAccountStore{acc: adminTarget()}
	svc := NewAccountService(store, &fakeLocker{}, zap.NewNop())

	updated, err := svc.SetSubscription(context.Background(), 7, &account.SetSubscriptionRequest{
		Status: account.SubscriptionStatusActive,
		Plan:   account.PlanTypeAnnual,
	})
	require.NoError(t, err)
	assert.Equal(t, account.SubscriptionStatusActive, updated.SubscriptionStatus)
	assert.Equal(t, account.PlanTypeAnnual, updated.SubscriptionType)
	assert.True(t, store.acc.HasActiveSubscription())
}

func TestSetSubscriptionVersionConflictPropagates(t *testing.T) {
	store := &fakeAccountStore{acc: adminTarget(), conflictAll: true}
	svc := NewAccountService(store, &fakeLocker{}, zap.NewNop())

	_, err := svc.SetSubscription(context.Background(), 7, &account.SetSubscriptionRequest{
		Status: account.SubscriptionStatusActive,
		Plan:   account.PlanTypeMonthly,
	})
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrVersionConflict))
	assert.Equal(t, account.SubscriptionStatusTrial, store.acc.SubscriptionStatus)
}

func TestListDefaultsPaging(t *testing.T) {
	store := &fakeAccountStore{acc: adminTarget()}
	svc := NewAccountService(store, &fakeLocker{}, zap.NewNop())

	result, err := svc.List(context.Background(), &account.ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.PageSize)
	assert.Equal(t, int64(1), result.Total)
	require.Len(t, result.Accounts, 1)
}
