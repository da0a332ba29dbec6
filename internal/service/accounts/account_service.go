// internal/service/accounts/account_service.go
package accounts

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lexinsight-service/internal/domain/account"
	"lexinsight-service/internal/entitlement"
	xerrors "lexinsight-service/internal/pkg/errors"
	"lexinsight-service/internal/pkg/lock"
	"lexinsight-service/internal/repository/postgres"
)

const lockTTL = 10 * time.Second

// AccountStore is the slice of the account repository the admin
// operations need.
type AccountStore interface {
	FindByID(ctx context.Context, id int64) (*account.Account, error)
	UpdateEntitlement(ctx context.Context, accountID int64, ent account.Entitlement) (account.Entitlement, error)
	List(ctx context.Context, limit, offset int) ([]*account.Account, int64, error)
}

// AccountLocker serializes entitlement writes per account.
type AccountLocker interface {
	WithAccountLock(ctx context.Context, accountID int64, ttl time.Duration, fn func() error) error
}

// AccountService covers the admin-facing entitlement operations.
type AccountService struct {
	accountRepo AccountStore
	locker      AccountLocker
	logger      *zap.Logger
}

func NewAccountService(accountRepo AccountStore, locker AccountLocker, logger *zap.Logger) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		locker:      locker,
		logger:      logger,
	}
}

// GrantCredits adds complimentary one-time report credits to an account.
func (s *AccountService) GrantCredits(ctx context.Context, accountID int64, credits int) (*account.Account, error) {
	if credits < 1 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "credits must be positive")
	}

	var updated *account.Account
	err := s.locker.WithAccountLock(ctx, accountID, lockTTL, func() error {
		acc, err := s.accountRepo.FindByID(ctx, accountID)
		if err != nil {
			return err
		}

		ent := acc.Entitlement
		ent.OneTimeReportsPurchased += credits
		newEnt, err := s.accountRepo.UpdateEntitlement(ctx, accountID, ent)
		if err != nil {
			return fmt.Errorf("failed to grant credits: %w", err)
		}

		acc.Entitlement = newEnt
		updated = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credits granted",
		zap.Int64("account_id", accountID),
		zap.Int("credits", credits),
	)
	return updated, nil
}

// SetSubscription force-sets the subscription state of an account.
// An admin override, not part of the gateway event flow.
func (s *AccountService) SetSubscription(ctx context.Context, accountID int64, req *account.SetSubscriptionRequest) (*account.Account, error) {
	var updated *account.Account
	err := s.locker.WithAccountLock(ctx, accountID, lockTTL, func() error {
		acc, err := s.accountRepo.FindByID(ctx, accountID)
		if err != nil {
			return err
		}

		ent := acc.Entitlement
		ent.SubscriptionStatus = req.Status
		ent.SubscriptionType = req.Plan
		newEnt, err := s.accountRepo.UpdateEntitlement(ctx, accountID, ent)
		if err != nil {
			return fmt.Errorf("failed to set subscription: %w", err)
		}

		acc.Entitlement = newEnt
		updated = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription set by admin",
		zap.Int64("account_id", accountID),
		zap.String("status", string(req.Status)),
		zap.String("plan", string(req.Plan)),
	)
	return updated, nil
}

// List returns a page of accounts for the admin listing.
func (s *AccountService) List(ctx context.Context, filters *account.ListFilters) (*account.ListResponse, error) {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	accounts, total, err := s.accountRepo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	out := make([]account.Account, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, *acc)
	}

	return &account.ListResponse{
		Accounts: out,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Status returns the entitlement projection for one account.
func (s *AccountService) Status(ctx context.Context, accountID int64) (account.StatusView, error) {
	acc, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return account.StatusView{}, err
	}
	return entitlement.Describe(acc.Entitlement), nil
}

var _ AccountStore = (*postgres.AccountRepository)(nil)
var _ AccountLocker = (*lock.Locker)(nil)
