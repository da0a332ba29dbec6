package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lexinsight-service/internal/domain/account"
	"lexinsight-service/internal/domain/report"
	"lexinsight-service/internal/domain/review"
	xerrors "lexinsight-service/internal/pkg/errors"
	"lexinsight-service/internal/pkg/pdf"
	"lexinsight-service/internal/service/analysis"
)

type fakeAccountStore struct {
	acc *account.Account

	// conflictWrites makes the first N UpdateEntitlement calls lose the
	// version race, as if a webhook wrote concurrently.
	conflictWrites int
	updates        int
}

func (f *fakeAccountStore) FindByID(_ context.Context, _ int64) (*account.Account, error) {
	cp := *f.acc
	return &cp, nil
}

func (f *fakeAccountStore) UpdateEntitlement(_ context.Context, _ int64, ent account.Entitlement) (account.Entitlement, error) {
	f.updates++
	if f.conflictWrites > 0 {
		f.conflictWrites--
		f.acc.Version++
		return ent, xerrors.ErrVersionConflict
	}
	if ent.Version != f.acc.Version {
		return ent, xerrors.ErrVersionConflict
	}
	ent.Version++
	f.acc.Entitlement = ent
	return ent, nil
}

type fakeReviewStore struct {
	reviews []*review.Review
}

func (f *fakeReviewStore) ListRecent(_ context.Context, _ int64, _ int) ([]*review.Review, error) {
	return f.reviews, nil
}

type fakeReportStore struct {
	created []*report.Report
}

func (f *fakeReportStore) Create(_ context.Context, rep *report.Report) error {
	f.created = append(f.created, rep)
	return nil
}

func (f *fakeReportStore) ListByAccount(_ context.Context, _ int64, _, _ int) ([]*report.Report, int64, error) {
	return f.created, int64(len(f.created)), nil
}

type fakeLocker struct {
	acquired int
}

func (f *fakeLocker) WithAccountLock(_ context.Context, _ int64, _ time.Duration, fn func() error) error {
	f.acquired++
	return fn()
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) NotifyReportGenerated(_ int64, reference string, _ account.StatusView) {
	f.events = append(f.events, reference)
}

func makeReviews(n int) []*review.Review {
	reviews := make([]*review.Review, 0, n)
	for i := 0; i < n; i++ {
		rating := 5
		if i%5 == 0 {
			rating = 2
		}
		reviews = append(reviews, &review.Review{
			Date:       "2026-06-01",
			Rating:     rating,
			ReviewText: "professional and responsive team",
		})
	}
	return reviews
}

func newTestService(accounts *fakeAccountStore, reviews *fakeReviewStore) (*ReportService, *fakeReportStore, *fakeNotifier) {
	reports := &fakeReportStore{}
	notifier := &fakeNotifier{}
	svc := NewReportService(
		accounts, reviews, reports, &fakeLocker{},
		analysis.NewAnalysisService(), pdf.NewGenerator(), notifier,
		zap.NewNop(),
	)
	return svc, reports, notifier
}

func trialAccount() *account.Account {
	return &account.Account{
		ID:       7,
		FirmName: "Hale & Murrow LLP",
		Entitlement: account.Entitlement{
			SubscriptionStatus: account.SubscriptionStatusTrial,
			TrialLimit:         3,
			TrialReviewsUsed:   1,
			Version:            4,
		},
	}
}

func TestGenerateChargesTrialBucket(t *testing.T) {
	accounts := &fakeAccountStore{acc: trialAccount()}
	svc, reports, notifier := newTestService(accounts, &fakeReviewStore{reviews: makeReviews(10)})

	result, err := svc.Generate(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "trial", result.Report.BucketCharged)
	assert.Equal(t, 2, accounts.acc.TrialReviewsUsed)
	assert.Equal(t, "%PDF", string(result.PDF[:4]))

	require.Len(t, reports.created, 1)
	assert.Equal(t, result.Report.Reference, reports.created[0].Reference)
	assert.Equal(t, []string{result.Report.Reference}, notifier.events)

	require.NotNil(t, result.Status.Remaining)
	assert.Equal(t, 1, *result.Status.Remaining)
}

func TestGenerateTrialCapsAnalysis(t *testing.T) {
	accounts := &fakeAccountStore{acc: trialAccount()}
	svc, _, _ := newTestService(accounts, &fakeReviewStore{reviews: makeReviews(80)})

	result, err := svc.Generate(context.Background(), 7)
	require.NoError(t, err)

	assert.True(t, result.Analysis.Limited)
	assert.Equal(t, analysis.TrialAnalysisCap, result.Report.TotalReviews)
}

func TestGenerateSubscriptionUncapped(t *testing.T) {
	acc := trialAccount()
	acc.SubscriptionStatus = account.SubscriptionStatusActive
	acc.SubscriptionType = account.PlanTypeMonthly
	accounts := &fakeAccountStore{acc: acc}
	svc, _, _ := newTestService(accounts, &fakeReviewStore{reviews: makeReviews(80)})

	result, err := svc.Generate(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "subscription", result.Report.BucketCharged)
	assert.False(t, result.Analysis.Limited)
	assert.Equal(t, 80, result.Report.TotalReviews)
	// Subscription generation never consumes a counter.
	assert.Equal(t, 1, accounts.acc.TrialReviewsUsed)
}

func TestGenerateQuotaExceeded(t *testing.T) {
	acc := trialAccount()
	acc.TrialReviewsUsed = 3
	accounts := &fakeAccountStore{acc: acc}
	svc, reports, notifier := newTestService(accounts, &fakeReviewStore{reviews: makeReviews(5)})

	_, err := svc.Generate(context.Background(), 7)
	require.ErrorIs(t, err, xerrors.ErrQuotaExceeded)
	assert.Empty(t, reports.created)
	assert.Empty(t, notifier.events)
}

func TestGenerateNoReviews(t *testing.T) {
	accounts := &fakeAccountStore{acc: trialAccount()}
	svc, _, _ := newTestService(accounts, &fakeReviewStore{})

	_, err := svc.Generate(context.Background(), 7)
	require.ErrorIs(t, err, xerrors.ErrInvalidInput)
	// The failed attempt must not consume a credit.
	assert.Equal(t, 1, accounts.acc.TrialReviewsUsed)
}

func TestGenerateRetriesLostVersionRaceOnce(t *testing.T) {
	accounts := &fakeAccountStore{acc: trialAccount(), conflictWrites: 1}
	svc, _, _ := newTestService(accounts, &fakeReviewStore{reviews: makeReviews(5)})

	result, err := svc.Generate(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "trial", result.Report.BucketCharged)
	assert.Equal(t, 2, accounts.updates)
}

func TestGenerateGivesUpAfterSecondConflict(t *testing.T) {
	accounts := &fakeAccountStore{acc: trialAccount(), conflictWrites: 2}
	svc, _, _ := newTestService(accounts, &fakeReviewStore{reviews: makeReviews(5)})

	_, err := svc.Generate(context.Background(), 7)
	require.ErrorIs(t, err, xerrors.ErrQuotaExceeded)
	assert.Equal(t, 2, accounts.updates)
}

func TestStatusProjectsEntitlement(t *testing.T) {
	accounts := &fakeAccountStore{acc: trialAccount()}
	svc, _, _ := newTestService(accounts, &fakeReviewStore{})

	view, err := svc.Status(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "trial", view.Bucket)
	require.NotNil(t, view.Remaining)
	assert.Equal(t, 2, *view.Remaining)
}
