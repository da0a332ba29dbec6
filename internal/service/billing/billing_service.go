// internal/service/billing/billing_service.go
package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	stripesession "github.com/stripe/stripe-go/v82/checkout/session"
	stripecustomer "github.com/stripe/stripe-go/v82/customer"
	"go.uber.org/zap"

	"lexinsight-service/internal/domain/account"
	"lexinsight-service/internal/domain/billing"
	"lexinsight-service/internal/entitlement"
	xerrors "lexinsight-service/internal/pkg/errors"
)

const lockTTL = 10 * time.Second

// Config carries the gateway credentials and price identifiers.
type Config struct {
	SecretKey     string
	WebhookSecret string
	PriceMonthly  string
	PriceAnnual   string
	PriceOneTime  string
}

// AccountStore is the slice of the account repository billing needs.
type AccountStore interface {
	FindByID(ctx context.Context, id int64) (*account.Account, error)
	FindByCustomerRef(ctx context.Context, customerRef string) (*account.Account, error)
	SetPaymentCustomerRef(ctx context.Context, accountID int64, customerRef string) error
	UpdateEntitlement(ctx context.Context, accountID int64, ent account.Entitlement) (account.Entitlement, error)
	MarkGatewayEventProcessed(ctx context.Context, eventID, kind string) (bool, error)
	UnmarkGatewayEvent(ctx context.Context, eventID string) error
}

// AccountLocker serializes entitlement writes per account.
type AccountLocker interface {
	WithAccountLock(ctx context.Context, accountID int64, ttl time.Duration, fn func() error) error
}

// Notifier pushes entitlement changes to connected clients.
type Notifier interface {
	NotifyEntitlementUpdated(accountID int64, status account.StatusView)
}

type BillingService struct {
	cfg      Config
	accounts AccountStore
	locker   AccountLocker
	notifier Notifier
	logger   *zap.Logger

	// Injected for tests.
	createCheckoutSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	createCustomer        func(params *stripe.CustomerParams) (*stripe.Customer, error)
}

func NewBillingService(cfg Config, accounts AccountStore, locker AccountLocker, notifier Notifier, logger *zap.Logger) *BillingService {
	stripe.Key = strings.TrimSpace(cfg.SecretKey)
	return &BillingService{
		cfg:                   cfg,
		accounts:              accounts,
		locker:                locker,
		notifier:              notifier,
		logger:                logger,
		createCheckoutSession: stripesession.New,
		createCustomer:        stripecustomer.New,
	}
}

// ========== Checkout ==========

// CreateCheckout opens a hosted checkout session. An empty plan buys a
// single one-time report credit; monthly or annual starts a subscription.
// The gateway customer is created lazily on the first checkout.
func (s *BillingService) CreateCheckout(ctx context.Context, accountID int64, req *billing.CheckoutRequest) (*billing.CheckoutResponse, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	customerRef, err := s.ensureCustomer(ctx, acc)
	if err != nil {
		return nil, err
	}

	mode := stripe.CheckoutSessionModePayment
	price := s.cfg.PriceOneTime
	switch req.Plan {
	case string(account.PlanTypeMonthly):
		mode = stripe.CheckoutSessionModeSubscription
		price = s.cfg.PriceMonthly
	case string(account.PlanTypeAnnual):
		mode = stripe.CheckoutSessionModeSubscription
		price = s.cfg.PriceAnnual
	case "":
	default:
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "unknown plan")
	}
	if strings.TrimSpace(price) == "" {
		return nil, fmt.Errorf("price not configured for plan %q", req.Plan)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(mode)),
		Customer:   stripe.String(customerRef),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(price),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"account_id": fmt.Sprintf("%d", accountID),
			"plan":       req.Plan,
		},
	}

	sess, err := s.createCheckoutSession(params)
	if err != nil || sess == nil || strings.TrimSpace(sess.URL) == "" {
		s.logger.Error("checkout session creation failed",
			zap.Int64("account_id", accountID),
			zap.String("plan", req.Plan),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.logger.Info("checkout session created",
		zap.Int64("account_id", accountID),
		zap.String("plan", req.Plan),
		zap.String("session_id", sess.ID),
	)

	return &billing.CheckoutResponse{
		SessionID:   sess.ID,
		CheckoutURL: sess.URL,
	}, nil
}

func (s *BillingService) ensureCustomer(ctx context.Context, acc *account.Account) (string, error) {
	if acc.PaymentCustomerRef.Valid && acc.PaymentCustomerRef.String != "" {
		return acc.PaymentCustomerRef.String, nil
	}

	cust, err := s.createCustomer(&stripe.CustomerParams{
		Email: stripe.String(acc.Email),
		Name:  stripe.String(acc.FirmName),
		Metadata: map[string]string{
			"account_id": fmt.Sprintf("%d", acc.ID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create gateway customer: %w", err)
	}

	if err := s.accounts.SetPaymentCustomerRef(ctx, acc.ID, cust.ID); err != nil {
		// Another request created the customer first; use the stored ref.
		if xerrors.Is(err, xerrors.ErrConflict) {
			stored, ferr := s.accounts.FindByID(ctx, acc.ID)
			if ferr == nil && stored.PaymentCustomerRef.Valid {
				return stored.PaymentCustomerRef.String, nil
			}
		}
		return "", err
	}

	return cust.ID, nil
}

// ========== Event application ==========

// ApplyEvent folds a verified gateway event into the owning account's
// entitlement. Events are idempotent by gateway event ID; a duplicate
// delivery is acknowledged without effect. Version races with a debit
// in flight are retried until the context expires.
func (s *BillingService) ApplyEvent(ctx context.Context, ev *billing.GatewayEvent) error {
	if ev.Kind == billing.EventUnknown {
		return nil
	}

	acc, err := s.findTarget(ctx, ev)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			s.logger.Warn("gateway event for unknown customer",
				zap.String("event_id", ev.ID),
				zap.String("customer_ref", ev.CustomerRef),
			)
			return nil
		}
		return err
	}

	return s.locker.WithAccountLock(ctx, acc.ID, lockTTL, func() error {
		fresh, err := s.accounts.MarkGatewayEventProcessed(ctx, ev.ID, string(ev.Kind))
		if err != nil {
			return err
		}
		if !fresh {
			s.logger.Info("duplicate gateway event ignored",
				zap.String("event_id", ev.ID),
				zap.Int64("account_id", acc.ID),
			)
			return nil
		}

		if err := s.applyToAccount(ctx, acc.ID, ev); err != nil {
			// The mark must not outlive a failed apply, or the
			// gateway's redelivery would dedup against it and the
			// event would never take effect.
			s.releaseEventMark(ev.ID)
			return err
		}
		return nil
	})
}

func (s *BillingService) applyToAccount(ctx context.Context, accountID int64, ev *billing.GatewayEvent) error {
	for {
		current, err := s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}

		next := entitlement.Apply(current.Entitlement, *ev)
		if ev.SubscriptionRef != "" {
			next.SubscriptionRef.String = ev.SubscriptionRef
			next.SubscriptionRef.Valid = true
		}

		updated, err := s.accounts.UpdateEntitlement(ctx, accountID, next)
		if err == nil {
			s.logger.Info("gateway event applied",
				zap.String("event_id", ev.ID),
				zap.String("kind", string(ev.Kind)),
				zap.Int64("account_id", accountID),
			)
			s.notifier.NotifyEntitlementUpdated(accountID, entitlement.Describe(updated))
			return nil
		}
		if !xerrors.Is(err, xerrors.ErrVersionConflict) {
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("gave up applying event %s: %w", ev.ID, ctx.Err())
		}
	}
}

// releaseEventMark deletes the idempotency row for an event whose apply
// failed. Runs on a fresh context since the request context may already
// be the reason the apply gave up.
func (s *BillingService) releaseEventMark(eventID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.accounts.UnmarkGatewayEvent(ctx, eventID); err != nil {
		s.logger.Error("failed to release gateway event mark",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
}

func (s *BillingService) findTarget(ctx context.Context, ev *billing.GatewayEvent) (*account.Account, error) {
	if ev.CustomerRef != "" {
		return s.accounts.FindByCustomerRef(ctx, ev.CustomerRef)
	}
	return nil, xerrors.ErrNotFound
}
