// internal/domain/account/entity.go
package account

import (
	"database/sql"
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionStatusTrial    SubscriptionStatus = "trial"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
)

type PlanType string

const (
	PlanTypeNone    PlanType = "none"
	PlanTypeMonthly PlanType = "monthly"
	PlanTypeAnnual  PlanType = "annual"
)

// Entitlement is the per-account billing record that gates report
// generation. All mutation goes through the resolver's Debit/Apply
// steps; the repository enforces the version check on write.
type Entitlement struct {
	SubscriptionStatus SubscriptionStatus `json:"subscription_status" db:"subscription_status"`
	SubscriptionType   PlanType           `json:"subscription_type" db:"subscription_type"`

	// Free trial counters
	TrialLimit       int `json:"trial_limit" db:"trial_limit"`
	TrialReviewsUsed int `json:"trial_reviews_used" db:"trial_reviews_used"`

	// One-time report credits
	OneTimeReportsPurchased int `json:"one_time_reports_purchased" db:"one_time_reports_purchased"`
	OneTimeReportsUsed      int `json:"one_time_reports_used" db:"one_time_reports_used"`

	// External payment gateway references. CustomerRef is created lazily
	// on first checkout and immutable once set.
	PaymentCustomerRef sql.NullString `json:"-" db:"payment_customer_ref"`
	SubscriptionRef    sql.NullString `json:"-" db:"subscription_ref"`

	// Optimistic concurrency token, incremented by the store on every write.
	Version int64 `json:"-" db:"version"`
}

// HasActiveSubscription reports whether the account holds an active
// subscription, regardless of plan type.
func (e Entitlement) HasActiveSubscription() bool {
	return e.SubscriptionStatus == SubscriptionStatusActive
}

// HasUnusedOneTimeReports reports whether any purchased one-time report
// credits remain unspent.
func (e Entitlement) HasUnusedOneTimeReports() bool {
	return e.OneTimeReportsPurchased > e.OneTimeReportsUsed
}

// RemainingOneTimeReports returns the unspent one-time credit count.
func (e Entitlement) RemainingOneTimeReports() int {
	if r := e.OneTimeReportsPurchased - e.OneTimeReportsUsed; r > 0 {
		return r
	}
	return 0
}

// RemainingTrialReports returns the unspent free-trial allowance.
func (e Entitlement) RemainingTrialReports() int {
	if r := e.TrialLimit - e.TrialReviewsUsed; r > 0 {
		return r
	}
	return 0
}

// IsTrialExpired reports whether the free-trial allowance is exhausted.
func (e Entitlement) IsTrialExpired() bool {
	return e.TrialReviewsUsed >= e.TrialLimit
}

type Account struct {
	ID           int64  `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	FirmName     string `json:"firm_name" db:"firm_name"`
	PasswordHash string `json:"-" db:"password_hash"`
	IsAdmin      bool   `json:"is_admin" db:"is_admin"`

	Entitlement

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// StatusView is the presentation projection of an entitlement record.
// Remaining is nil for the unlimited subscription bucket.
type StatusView struct {
	Bucket     string `json:"type"`
	Display    string `json:"display"`
	Remaining  *int   `json:"remaining"`
	TrialLimit *int   `json:"trial_limit,omitempty"`
}
