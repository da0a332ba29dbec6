// internal/domain/billing/entity.go
package billing

import "lexinsight-service/internal/domain/account"

// EventKind identifies a payment-gateway lifecycle notification.
type EventKind string

const (
	EventCheckoutCompleted       EventKind = "checkout_completed"
	EventSubscriptionUpdated     EventKind = "subscription_updated"
	EventSubscriptionDeleted     EventKind = "subscription_deleted"
	EventOneTimePaymentCompleted EventKind = "onetime_payment_completed"
	EventUnknown                 EventKind = "unknown"
)

// GatewayEvent is a verified, normalized payment-gateway notification.
// ID is the gateway's own event identifier and doubles as the
// idempotency key: the same ID is never applied twice.
type GatewayEvent struct {
	ID              string
	Kind            EventKind
	CustomerRef     string
	SubscriptionRef string
	Plan            account.PlanType
	Status          account.SubscriptionStatus
}
