// internal/entitlement/resolver.go
//
// Pure decision logic for tiered report entitlements. An account draws
// from exactly one bucket per generated report, resolved in fixed
// precedence order: subscription > one-time credits > free trial.
// Buckets are never combined or summed. Nothing here performs I/O; the
// caller owns the read-modify-write discipline against the store.
package entitlement

import (
	"fmt"
	"strings"

	"lexinsight-service/internal/domain/account"
	"lexinsight-service/internal/domain/billing"
	xerrors "lexinsight-service/internal/pkg/errors"
)

// Bucket is the quota category a report generation draws from.
type Bucket string

const (
	BucketSubscription Bucket = "subscription"
	BucketOneTime      Bucket = "onetime"
	BucketTrial        Bucket = "trial"
)

// CanGenerate reports whether the record permits generating a report
// from any bucket. Pure function of the record's current fields.
func CanGenerate(rec account.Entitlement) bool {
	_, ok := ResolveBucket(rec)
	return ok
}

// ResolveBucket returns the bucket a report generation would charge,
// applying the fixed precedence order. ok is false when no bucket has
// remaining allowance; callers must check before calling Debit.
func ResolveBucket(rec account.Entitlement) (Bucket, bool) {
	switch {
	case rec.HasActiveSubscription():
		return BucketSubscription, true
	case rec.HasUnusedOneTimeReports():
		return BucketOneTime, true
	case !rec.IsTrialExpired():
		return BucketTrial, true
	default:
		return "", false
	}
}

// Debit charges one report against the given bucket and returns the
// updated record. The subscription bucket is unlimited per period, so
// it debits nothing. Counter buckets fail with ErrQuotaExceeded when
// the increment would overrun the ceiling (a lost check-then-act race);
// on failure the input record is returned unchanged.
func Debit(rec account.Entitlement, bucket Bucket) (account.Entitlement, error) {
	switch bucket {
	case BucketSubscription:
		return rec, nil
	case BucketOneTime:
		if rec.OneTimeReportsUsed >= rec.OneTimeReportsPurchased {
			return rec, xerrors.ErrQuotaExceeded
		}
		rec.OneTimeReportsUsed++
		return rec, nil
	case BucketTrial:
		if rec.TrialReviewsUsed >= rec.TrialLimit {
			return rec, xerrors.ErrQuotaExceeded
		}
		rec.TrialReviewsUsed++
		return rec, nil
	default:
		return rec, fmt.Errorf("unknown bucket %q: %w", bucket, xerrors.ErrInvalidInput)
	}
}

// Apply folds a gateway lifecycle event into the record. Application is
// idempotent for subscription state changes; one-time payment grants
// rely on the caller deduplicating by gateway event ID before calling.
// Unknown event kinds are ignored for forward compatibility.
func Apply(rec account.Entitlement, ev billing.GatewayEvent) account.Entitlement {
	switch ev.Kind {
	case billing.EventCheckoutCompleted:
		rec.SubscriptionStatus = account.SubscriptionStatusActive
		rec.SubscriptionType = ev.Plan
	case billing.EventSubscriptionUpdated:
		if ev.Plan != "" && ev.Plan != account.PlanTypeNone {
			rec.SubscriptionType = ev.Plan
		}
		// Status only moves on an explicit signal from the gateway;
		// plan-only updates leave it untouched.
		switch ev.Status {
		case account.SubscriptionStatusActive,
			account.SubscriptionStatusPastDue,
			account.SubscriptionStatusCanceled:
			rec.SubscriptionStatus = ev.Status
		}
	case billing.EventSubscriptionDeleted:
		rec.SubscriptionStatus = account.SubscriptionStatusCanceled
	case billing.EventOneTimePaymentCompleted:
		rec.OneTimeReportsPurchased++
	}
	return rec
}

// Describe projects the record into its presentation view, following
// the same precedence order as ResolveBucket. Remaining is nil for the
// unlimited subscription bucket. No state mutation.
func Describe(rec account.Entitlement) account.StatusView {
	bucket, ok := ResolveBucket(rec)
	if ok && bucket == BucketSubscription {
		return account.StatusView{
			Bucket:  string(rec.SubscriptionType),
			Display: fmt.Sprintf("Unlimited (%s Subscription)", titleCase(string(rec.SubscriptionType))),
		}
	}
	if ok && bucket == BucketOneTime {
		remaining := rec.RemainingOneTimeReports()
		return account.StatusView{
			Bucket:    string(BucketOneTime),
			Display:   fmt.Sprintf("One-Time Reports: %d remaining", remaining),
			Remaining: &remaining,
		}
	}
	remaining := rec.RemainingTrialReports()
	limit := rec.TrialLimit
	return account.StatusView{
		Bucket:     string(BucketTrial),
		Display:    fmt.Sprintf("Free Trial: %d/%d remaining", remaining, limit),
		Remaining:  &remaining,
		TrialLimit: &limit,
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
