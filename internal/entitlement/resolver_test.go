package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexinsight-service/internal/domain/account"
	"lexinsight-service/internal/domain/billing"
	xerrors "lexinsight-service/internal/pkg/errors"
)

func trialRecord() account.Entitlement {
	return account.Entitlement{
		SubscriptionStatus: account.SubscriptionStatusTrial,
		SubscriptionType:   account.PlanTypeNone,
		TrialLimit:         3,
	}
}

func TestResolveBucketPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		rec    account.Entitlement
		bucket Bucket
		ok     bool
	}{
		{
			name: "active subscription wins over everything",
			rec: account.Entitlement{
				SubscriptionStatus:      account.SubscriptionStatusActive,
				SubscriptionType:        account.PlanTypeMonthly,
				TrialLimit:              3,
				TrialReviewsUsed:        3,
				OneTimeReportsPurchased: 5,
				OneTimeReportsUsed:      0,
			},
			bucket: BucketSubscription,
			ok:     true,
		},
		{
			name: "one-time credits beat remaining trial",
			rec: account.Entitlement{
				SubscriptionStatus:      account.SubscriptionStatusTrial,
				TrialLimit:              3,
				TrialReviewsUsed:        0,
				OneTimeReportsPurchased: 2,
				OneTimeReportsUsed:      1,
			},
			bucket: BucketOneTime,
			ok:     true,
		},
		{
			name: "canceled subscription falls through to credits",
			rec: account.Entitlement{
				SubscriptionStatus:      account.SubscriptionStatusCanceled,
				SubscriptionType:        account.PlanTypeAnnual,
				OneTimeReportsPurchased: 1,
			},
			bucket: BucketOneTime,
			ok:     true,
		},
		{
			name: "past_due is not active",
			rec: account.Entitlement{
				SubscriptionStatus: account.SubscriptionStatusPastDue,
				TrialLimit:         3,
				TrialReviewsUsed:   1,
			},
			bucket: BucketTrial,
			ok:     true,
		},
		{
			name:   "fresh trial",
			rec:    trialRecord(),
			bucket: BucketTrial,
			ok:     true,
		},
		{
			name: "everything exhausted",
			rec: account.Entitlement{
				SubscriptionStatus:      account.SubscriptionStatusTrial,
				TrialLimit:              3,
				TrialReviewsUsed:        3,
				OneTimeReportsPurchased: 2,
				OneTimeReportsUsed:      2,
			},
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, ok := ResolveBucket(tt.rec)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.bucket, bucket)
			}
			assert.Equal(t, tt.ok, CanGenerate(tt.rec))
		})
	}
}

func TestCanGenerateActiveSubscriptionIgnoresCounters(t *testing.T) {
	rec := account.Entitlement{
		SubscriptionStatus:      account.SubscriptionStatusActive,
		SubscriptionType:        account.PlanTypeAnnual,
		TrialLimit:              3,
		TrialReviewsUsed:        99,
		OneTimeReportsPurchased: 0,
		OneTimeReportsUsed:      0,
	}
	assert.True(t, CanGenerate(rec))
}

func TestCanGenerateTrialExhausted(t *testing.T) {
	rec := trialRecord()
	rec.TrialReviewsUsed = 3
	assert.False(t, CanGenerate(rec))
}

func TestDebitSubscriptionLeavesRecordUnchanged(t *testing.T) {
	rec := account.Entitlement{
		SubscriptionStatus: account.SubscriptionStatusActive,
		SubscriptionType:   account.PlanTypeMonthly,
		TrialLimit:         3,
	}
	got, err := Debit(rec, BucketSubscription)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDebitOneTime(t *testing.T) {
	rec := trialRecord()
	rec.OneTimeReportsPurchased = 2
	rec.OneTimeReportsUsed = 1

	got, err := Debit(rec, BucketOneTime)
	require.NoError(t, err)
	assert.Equal(t, 2, got.OneTimeReportsUsed)

	// Credits drained: resolution now falls through to trial.
	bucket, ok := ResolveBucket(got)
	require.True(t, ok)
	assert.Equal(t, BucketTrial, bucket)
}

func TestDebitOneTimeQuotaExceeded(t *testing.T) {
	rec := trialRecord()
	rec.OneTimeReportsPurchased = 1
	rec.OneTimeReportsUsed = 1

	got, err := Debit(rec, BucketOneTime)
	require.ErrorIs(t, err, xerrors.ErrQuotaExceeded)
	assert.Equal(t, rec, got, "failed debit must not mutate the record")
}

func TestDebitTrial(t *testing.T) {
	rec := trialRecord()

	got, err := Debit(rec, BucketTrial)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TrialReviewsUsed)

	got.TrialReviewsUsed = got.TrialLimit
	_, err = Debit(got, BucketTrial)
	require.ErrorIs(t, err, xerrors.ErrQuotaExceeded)
}

func TestDebitUnknownBucket(t *testing.T) {
	_, err := Debit(trialRecord(), Bucket("bogus"))
	require.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestApplyCheckoutCompleted(t *testing.T) {
	rec := trialRecord()
	got := Apply(rec, billing.GatewayEvent{
		ID:   "evt_1",
		Kind: billing.EventCheckoutCompleted,
		Plan: account.PlanTypeAnnual,
	})

	assert.Equal(t, account.SubscriptionStatusActive, got.SubscriptionStatus)
	assert.Equal(t, account.PlanTypeAnnual, got.SubscriptionType)
	assert.True(t, CanGenerate(got))

	bucket, ok := ResolveBucket(got)
	require.True(t, ok)
	assert.Equal(t, BucketSubscription, bucket)
}

func TestApplySubscriptionUpdatedPlanOnly(t *testing.T) {
	rec := trialRecord()
	rec.SubscriptionStatus = account.SubscriptionStatusActive
	rec.SubscriptionType = account.PlanTypeMonthly

	got := Apply(rec, billing.GatewayEvent{
		Kind: billing.EventSubscriptionUpdated,
		Plan: account.PlanTypeAnnual,
	})
	assert.Equal(t, account.PlanTypeAnnual, got.SubscriptionType)
	assert.Equal(t, account.SubscriptionStatusActive, got.SubscriptionStatus)
}

func TestApplySubscriptionUpdatedStatusChange(t *testing.T) {
	rec := trialRecord()
	rec.SubscriptionStatus = account.SubscriptionStatusActive
	rec.SubscriptionType = account.PlanTypeMonthly

	got := Apply(rec, billing.GatewayEvent{
		Kind:   billing.EventSubscriptionUpdated,
		Status: account.SubscriptionStatusPastDue,
	})
	assert.Equal(t, account.SubscriptionStatusPastDue, got.SubscriptionStatus)
	assert.Equal(t, account.PlanTypeMonthly, got.SubscriptionType)
}

func TestApplySubscriptionDeleted(t *testing.T) {
	rec := trialRecord()
	rec.SubscriptionStatus = account.SubscriptionStatusActive
	rec.SubscriptionType = account.PlanTypeMonthly

	got := Apply(rec, billing.GatewayEvent{Kind: billing.EventSubscriptionDeleted})
	assert.Equal(t, account.SubscriptionStatusCanceled, got.SubscriptionStatus)
}

func TestApplySubscriptionEventsIdempotent(t *testing.T) {
	rec := trialRecord()
	ev := billing.GatewayEvent{
		Kind: billing.EventCheckoutCompleted,
		Plan: account.PlanTypeMonthly,
	}
	once := Apply(rec, ev)
	twice := Apply(once, ev)
	assert.Equal(t, once, twice)

	del := billing.GatewayEvent{Kind: billing.EventSubscriptionDeleted}
	assert.Equal(t, Apply(once, del), Apply(Apply(once, del), del))
}

func TestApplyOneTimePaymentCompleted(t *testing.T) {
	rec := trialRecord()
	got := Apply(rec, billing.GatewayEvent{Kind: billing.EventOneTimePaymentCompleted})
	assert.Equal(t, 1, got.OneTimeReportsPurchased)
}

func TestApplyUnknownKindIgnored(t *testing.T) {
	rec := trialRecord()
	rec.OneTimeReportsPurchased = 2
	got := Apply(rec, billing.GatewayEvent{Kind: billing.EventUnknown})
	assert.Equal(t, rec, got)
}

func TestDescribe(t *testing.T) {
	sub := account.Entitlement{
		SubscriptionStatus: account.SubscriptionStatusActive,
		SubscriptionType:   account.PlanTypeMonthly,
	}
	view := Describe(sub)
	assert.Equal(t, "monthly", view.Bucket)
	assert.Equal(t, "Unlimited (Monthly Subscription)", view.Display)
	assert.Nil(t, view.Remaining, "subscription bucket is unlimited")

	onetime := trialRecord()
	onetime.OneTimeReportsPurchased = 3
	onetime.OneTimeReportsUsed = 1
	view = Describe(onetime)
	assert.Equal(t, "onetime", view.Bucket)
	assert.Equal(t, "One-Time Reports: 2 remaining", view.Display)
	require.NotNil(t, view.Remaining)
	assert.Equal(t, 2, *view.Remaining)

	trial := trialRecord()
	trial.TrialReviewsUsed = 2
	view = Describe(trial)
	assert.Equal(t, "trial", view.Bucket)
	assert.Equal(t, "Free Trial: 1/3 remaining", view.Display)
	require.NotNil(t, view.Remaining)
	assert.Equal(t, 1, *view.Remaining)
	require.NotNil(t, view.TrialLimit)
	assert.Equal(t, 3, *view.TrialLimit)

	exhausted := trialRecord()
	exhausted.TrialReviewsUsed = 3
	view = Describe(exhausted)
	assert.Equal(t, "trial", view.Bucket)
	require.NotNil(t, view.Remaining)
	assert.Equal(t, 0, *view.Remaining)
}
