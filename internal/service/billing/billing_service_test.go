package billing

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"lexinsight-service/internal/domain/account"
	"lexinsight-service/internal/domain/billing"
	xerrors "lexinsight-service/internal/pkg/errors"
)

const testWebhookSecret = "whsec_test_secret"

type fakeAccountStore struct {
	acc       *account.Account
	processed map[string]bool
	updates   int

	// Forces every entitlement write to lose its version check.
	conflictAll bool
}

func newFakeAccountStore(acc *account.Account) *fakeAccountStore {
	return &fakeAccountStore{acc: acc, processed: make(map[string]bool)}
}

func (f *fakeAccountStore) FindByID(_ context.Context, _ int64) (*account.Account, error) {
	cp := *f.acc
	return &cp, nil
}

func (f *fakeAccountStore) FindByCustomerRef(_ context.Context, ref string) (*account.Account, error) {
	if f.acc.PaymentCustomerRef.Valid && f.acc.PaymentCustomerRef.String == ref {
		cp := *f.acc
		return &cp, nil
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeAccountStore) SetPaymentCustomerRef(_ context.Context, _ int64, ref string) error {
	if f.acc.PaymentCustomerRef.Valid {
		return xerrors.ErrConflict
	}
	f.acc.PaymentCustomerRef = sql.NullString{String: ref, Valid: true}
	return nil
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

func (f *fakeAccountStore) MarkGatewayEventProcessed(_ context.Context, eventID, _ string) (bool, error) {
	if f.processed[eventID] {
		return false, nil
	}
	f.processed[eventID] = true
	return true, nil
}

func (f *fakeAccountStore) UnmarkGatewayEvent(_ context.Context, eventID string) error {
	delete(f.processed, eventID)
	return nil
}

type fakeLocker struct{}

func (fakeLocker) WithAccountLock(_ context.Context, _ int64, _ time.Duration, fn func() error) error {
	return fn()
}

type fakeNotifier struct {
	updates []account.StatusView
}

func (f *fakeNotifier) NotifyEntitlementUpdated(_ int64, status account.StatusView) {
	f.updates = append(f.updates, status)
}

func customerAccount() *account.Account {
	return &account.Account{
		ID:       9,
		Email:    "partner@halefirm.example",
		FirmName: "Hale & Murrow LLP",
		Entitlement: account.Entitlement{
			SubscriptionStatus: account.SubscriptionStatusTrial,
			TrialLimit:         3,
			PaymentCustomerRef: sql.NullString{String: "cus_test_9", Valid: true},
			Version:            1,
		},
	}
}

func newTestService(store *fakeAccountStore) (*BillingService, *fakeNotifier) {
	notifier := &fakeNotifier{}
	svc := NewBillingService(Config{
		SecretKey:     "sk_test",
		WebhookSecret: testWebhookSecret,
		PriceMonthly:  "price_monthly",
		PriceAnnual:   "price_annual",
		PriceOneTime:  "price_onetime",
	}, store, fakeLocker{}, notifier, zap.NewNop())
	return svc, notifier
}

func signPayload(t *testing.T, payload string) (body []byte, header string) {
	t.Helper()

	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Payload, signed.Header
}

func TestParseWebhookEventRejectsBadSignature(t *testing.T) {
	svc, _ := newTestService(newFakeAccountStore(customerAccount()))

	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`
	_, err := svc.ParseWebhookEvent([]byte(payload), "t=1,v1=garbage")
	require.ErrorIs(t, err, xerrors.ErrUnverifiedEvent)

	_, err = svc.ParseWebhookEvent([]byte(payload), "")
	require.ErrorIs(t, err, xerrors.ErrUnverifiedEvent)
}

func TestParseWebhookEventCheckoutSubscription(t *testing.T) {
	svc, _ := newTestService(newFakeAccountStore(customerAccount()))

	payload := `{"id":"evt_co_1","type":"checkout.session.completed","data":{"object":{
		"id":"cs_1","mode":"subscription","customer":"cus_test_9","subscription":"sub_1",
		"metadata":{"plan":"annual","account_id":"9"}}}}`
	body, header := signPayload(t, payload)

	ev, err := svc.ParseWebhookEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, billing.EventCheckoutCompleted, ev.Kind)
	assert.Equal(t, "cus_test_9", ev.CustomerRef)
	assert.Equal(t, "sub_1", ev.SubscriptionRef)
	assert.Equal(t, account.PlanTypeAnnual, ev.Plan)
}

func TestParseWebhookEventOneTimePayment(t *testing.T) {
	svc, _ := newTestService(newFakeAccountStore(customerAccount()))

	payload := `{"id":"evt_co_2","type":"checkout.session.completed","data":{"object":{
		"id":"cs_2","mode":"payment","customer":"cus_test_9","metadata":{"account_id":"9"}}}}`
	body, header := signPayload(t, payload)

	ev, err := svc.ParseWebhookEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, billing.EventOneTimePaymentCompleted, ev.Kind)
	assert.Equal(t, "cus_test_9", ev.CustomerRef)
}

func TestParseWebhookEventSubscriptionUpdated(t *testing.T) {
	svc, _ := newTestService(newFakeAccountStore(customerAccount()))

	payload := `{"id":"evt_su_1","type":"customer.subscription.updated","data":{"object":{
		"id":"sub_1","customer":"cus_test_9","status":"past_due",
		"items":{"data":[{"price":{"id":"price_monthly"}}]}}}}`
	body, header := signPayload(t, payload)

	ev, err := svc.ParseWebhookEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, billing.EventSubscriptionUpdated, ev.Kind)
	assert.Equal(t, account.PlanTypeMonthly, ev.Plan)
	assert.Equal(t, account.SubscriptionStatusPastDue, ev.Status)
}

func TestParseWebhookEventUnknownTypeIgnored(t *testing.T) {
	svc, _ := newTestService(newFakeAccountStore(customerAccount()))

	payload := `{"id":"evt_x","type":"invoice.paid","data":{"object":{}}}`
	body, header := signPayload(t, payload)

	ev, err := svc.ParseWebhookEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, billing.EventUnknown, ev.Kind)
}

func TestApplyEventActivatesSubscription(t *testing.T) {
	store := newFakeAccountStore(customerAccount())
	svc, notifier := newTestService(store)

	ev := &billing.GatewayEvent{
		ID:              "evt_co_1",
		Kind:            billing.EventCheckoutCompleted,
		CustomerRef:     "cus_test_9",
		SubscriptionRef: "sub_1",
		Plan:            account.PlanTypeMonthly,
	}
	require.NoError(t, svc.ApplyEvent(context.Background(), ev))

	assert.Equal(t, account.SubscriptionStatusActive, store.acc.SubscriptionStatus)
	assert.Equal(t, account.PlanTypeMonthly, store.acc.SubscriptionType)
	assert.Equal(t, "sub_1", store.acc.SubscriptionRef.String)
	require.Len(t, notifier.updates, 1)
	assert.Equal(t, "monthly", notifier.updates[0].Bucket)
}

func TestApplyEventDuplicateDeliveryIsNoop(t *testing.T) {
	store := newFakeAccountStore(customerAccount())
	svc, notifier := newTestService(store)

	ev := &billing.GatewayEvent{
		ID:          "evt_pay_1",
		Kind:        billing.EventOneTimePaymentCompleted,
		CustomerRef: "cus_test_9",
	}
	require.NoError(t, svc.ApplyEvent(context.Background(), ev))
	require.NoError(t, svc.ApplyEvent(context.Background(), ev))

	// The credit is granted exactly once.
	assert.Equal(t, 1, store.acc.OneTimeReportsPurchased)
	assert.Len(t, notifier.updates, 1)
}

func TestApplyEventRedeliveryAfterFailedApply(t *testing.T) {
	store := newFakeAccountStore(customerAccount())
	svc, notifier := newTestService(store)

	ev := &billing.GatewayEvent{
		ID:          "evt_pay_2",
		Kind:        billing.EventOneTimePaymentCompleted,
		CustomerRef: "cus_test_9",
	}

	// Every write loses the version race and the delivery context is
	// already expired, so the first apply gives up.
	store.conflictAll = true
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, svc.ApplyEvent(ctx, ev))
	assert.Equal(t, 0, store.acc.OneTimeReportsPurchased)

	// The failed apply must release the idempotency mark so the
	// gateway's redelivery is not swallowed as a duplicate.
	assert.False(t, store.processed[ev.ID])

	store.conflictAll = false
	require.NoError(t, svc.ApplyEvent(context.Background(), ev))
	assert.Equal(t, 1, store.acc.OneTimeReportsPurchased)
	require.Len(t, notifier.updates, 1)
}

func TestApplyEventUnknownCustomerAcknowledged(t *testing.T) {
	store := newFakeAccountStore(customerAccount())
	svc, notifier := newTestService(store)

	ev := &billing.GatewayEvent{
		ID:          "evt_ghost",
		Kind:        billing.EventOneTimePaymentCompleted,
		CustomerRef: "cus_unknown",
	}
	require.NoError(t, svc.ApplyEvent(context.Background(), ev))
	assert.Empty(t, notifier.updates)
	assert.Equal(t, 0, store.acc.OneTimeReportsPurchased)
}

func TestApplyEventUnknownKindIgnored(t *testing.T) {
	store := newFakeAccountStore(customerAccount())
	svc, _ := newTestService(store)

	require.NoError(t, svc.ApplyEvent(context.Background(), &billing.GatewayEvent{
		ID:   "evt_x",
		Kind: billing.EventUnknown,
	}))
	assert.Equal(t, 0, store.updates)
}
