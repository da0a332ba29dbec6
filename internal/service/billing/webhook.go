// internal/service/billing/webhook.go
package billing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82/webhook"

	"lexinsight-service/internal/domain/account"
	"lexinsight-service/internal/domain/billing"
	xerrors "lexinsight-service/internal/pkg/errors"
)

// checkoutSession is a minimal representation of a checkout.session event.
type checkoutSession struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// subscription is a minimal representation of a subscription event.
type subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (s *subscription) firstPriceID() string {
	for _, item := range s.Items.Data {
		if priceID := strings.TrimSpace(item.Price.ID); priceID != "" {
			return priceID
		}
	}
	return ""
}

// ParseWebhookEvent verifies the gateway signature and normalizes the
// payload into a GatewayEvent. Unrecognized event types come back as
// EventUnknown so the caller can acknowledge them without acting.
func (s *BillingService) ParseWebhookEvent(payload []byte, sigHeader string) (*billing.GatewayEvent, error) {
	if strings.TrimSpace(s.cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("webhook secret not configured")
	}
	if strings.TrimSpace(sigHeader) == "" {
		return nil, xerrors.ErrUnverifiedEvent
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnverifiedEvent, err.Error())
	}

	ev := &billing.GatewayEvent{ID: event.ID, Kind: billing.EventUnknown}

	switch event.Type {
	case "checkout.session.completed":
		var sess checkoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout.session: %w", err)
		}
		ev.CustomerRef = sess.Customer
		if sess.Mode == "payment" {
			ev.Kind = billing.EventOneTimePaymentCompleted
			return ev, nil
		}
		ev.Kind = billing.EventCheckoutCompleted
		ev.SubscriptionRef = sess.Subscription
		ev.Plan = account.PlanType(sess.Metadata["plan"])
		return ev, nil

	case "customer.subscription.updated":
		var sub subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		ev.Kind = billing.EventSubscriptionUpdated
		ev.CustomerRef = sub.Customer
		ev.SubscriptionRef = sub.ID
		ev.Plan = s.planForPrice(sub.firstPriceID())
		ev.Status = mapSubscriptionStatus(sub.Status)
		return ev, nil

	case "customer.subscription.deleted":
		var sub subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		ev.Kind = billing.EventSubscriptionDeleted
		ev.CustomerRef = sub.Customer
		ev.SubscriptionRef = sub.ID
		return ev, nil

	default:
		return ev, nil
	}
}

func (s *BillingService) planForPrice(priceID string) account.PlanType {
	switch priceID {
	case s.cfg.PriceMonthly:
		return account.PlanTypeMonthly
	case s.cfg.PriceAnnual:
		return account.PlanTypeAnnual
	default:
		return account.PlanTypeNone
	}
}

// mapSubscriptionStatus translates gateway subscription states into the
// local status enum. States with no local meaning map to the empty
// value, which Apply treats as no status change.
func mapSubscriptionStatus(status string) account.SubscriptionStatus {
	switch status {
	case "active", "trialing":
		return account.SubscriptionStatusActive
	case "past_due", "unpaid":
		return account.SubscriptionStatusPastDue
	case "canceled", "incomplete_expired":
		return account.SubscriptionStatusCanceled
	default:
		return ""
	}
}
