// internal/service/email/lifecycle.go
package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lexinsight-service/internal/domain/account"
	"lexinsight-service/internal/repository/postgres"
)

// Sender is the outgoing mail dependency of the sweep.
type Sender interface {
	Send(to, subject, bodyHTML string) error
}

// AccountLister is the slice of the account repository the sweep reads.
type AccountLister interface {
	ListTrialAccountsNearLimit(ctx context.Context, remaining int) ([]*account.Account, error)
	ListByStatus(ctx context.Context, status account.SubscriptionStatus) ([]*account.Account, error)
}

// LifecycleSweeper sends trial and subscription reminder emails.
// Run daily from a scheduler.
type LifecycleSweeper struct {
	accounts AccountLister
	sender   Sender
	logger   *zap.Logger
}

func NewLifecycleSweeper(accounts AccountLister, sender Sender, logger *zap.Logger) *LifecycleSweeper {
	return &LifecycleSweeper{
		accounts: accounts,
		sender:   sender,
		logger:   logger,
	}
}

// Run executes one sweep. Individual send failures are logged, not fatal.
func (s *LifecycleSweeper) Run(ctx context.Context) error {
	if err := s.sendTrialReminders(ctx); err != nil {
		return err
	}
	return s.sendSubscriptionWarnings(ctx)
}

// sendTrialReminders nudges trial accounts with at most one report left.
func (s *LifecycleSweeper) sendTrialReminders(ctx context.Context) error {
	accounts, err := s.accounts.ListTrialAccountsNearLimit(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to list trial accounts: %w", err)
	}

	for _, acc := range accounts {
		remaining := acc.RemainingTrialReports()
		body := fmt.Sprintf(
			`<p>Hi %s,</p>
			<p>Your free trial has <strong>%d</strong> report(s) remaining.
			Subscribe to keep analyzing your client feedback without limits.</p>`,
			firmOrDefault(acc), remaining,
		)
		if err := s.sender.Send(acc.Email, "Your LexInsight trial is almost over", body); err != nil {
			s.logger.Warn("trial reminder failed",
				zap.Int64("account_id", acc.ID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("trial reminder sent", zap.Int64("account_id", acc.ID))
	}

	return nil
}

// sendSubscriptionWarnings nags past_due and canceled subscribers.
func (s *LifecycleSweeper) sendSubscriptionWarnings(ctx context.Context) error {
	for _, status := range []account.SubscriptionStatus{
		account.SubscriptionStatusPastDue,
		account.SubscriptionStatusCanceled,
	} {
		accounts, err := s.accounts.ListByStatus(ctx, status)
		if err != nil {
			return fmt.Errorf("failed to list %s accounts: %w", status, err)
		}

		for _, acc := range accounts {
			if acc.SubscriptionType == account.PlanTypeNone {
				continue
			}
			body := fmt.Sprintf(
				`<p>Hi %s,</p>
				<p>Your %s subscription is currently <strong>%s</strong>.
				Update your billing details to restore unlimited report access.</p>`,
				firmOrDefault(acc), acc.SubscriptionType, acc.SubscriptionStatus,
			)
			if err := s.sender.Send(acc.Email, "Action needed: your LexInsight subscription", body); err != nil {
				s.logger.Warn("subscription warning failed",
					zap.Int64("account_id", acc.ID),
					zap.Error(err),
				)
				continue
			}
			s.logger.Info("subscription warning sent", zap.Int64("account_id", acc.ID))
		}
	}

	return nil
}

func firmOrDefault(acc *account.Account) string {
	if acc.FirmName != "" {
		return acc.FirmName
	}
	return "there"
}

var _ AccountLister = (*postgres.AccountRepository)(nil)
