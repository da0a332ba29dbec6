// internal/repository/postgres/account_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lexinsight-service/internal/domain/account"
	xerrors "lexinsight-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `
	id, email, firm_name, password_hash, is_admin,
	subscription_status, subscription_type,
	trial_limit, trial_reviews_used,
	onetime_reports_purchased, onetime_reports_used,
	payment_customer_ref, subscription_ref,
	version, created_at, updated_at
`

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID, &acc.Email, &acc.FirmName, &acc.PasswordHash, &acc.IsAdmin,
		&acc.SubscriptionStatus, &acc.SubscriptionType,
		&acc.TrialLimit, &acc.TrialReviewsUsed,
		&acc.OneTimeReportsPurchased, &acc.OneTimeReportsUsed,
		&acc.PaymentCustomerRef, &acc.SubscriptionRef,
		&acc.Version, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &acc, nil
}

// Create inserts a new account with a fresh trial entitlement.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (
			email, firm_name, password_hash, is_admin,
			subscription_status, subscription_type,
			trial_limit, trial_reviews_used,
			onetime_reports_purchased, onetime_reports_used
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, version, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		strings.ToLower(acc.Email), acc.FirmName, acc.PasswordHash, acc.IsAdmin,
		acc.SubscriptionStatus, acc.SubscriptionType,
		acc.TrialLimit, acc.TrialReviewsUsed,
		acc.OneTimeReportsPurchased, acc.OneTimeReportsUsed,
	).Scan(&acc.ID, &acc.Version, &acc.CreatedAt, &acc.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return xerrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// FindByID retrieves an account by ID.
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

// FindByEmail retrieves an account by email, case-insensitively.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.db.QueryRow(ctx, query, strings.ToLower(email)))
}

// FindByCustomerRef retrieves an account by its payment gateway customer reference.
func (r *AccountRepository) FindByCustomerRef(ctx context.Context, customerRef string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE payment_customer_ref = $1`
	return scanAccount(r.db.QueryRow(ctx, query, customerRef))
}

// UpdateEntitlement writes the entitlement fields guarded by the version
// column. Returns ErrVersionConflict when a concurrent writer won.
func (r *AccountRepository) UpdateEntitlement(ctx context.Context, accountID int64, ent account.Entitlement) (account.Entitlement, error) {
	query := `
		UPDATE accounts SET
			subscription_status = $1,
			subscription_type = $2,
			trial_limit = $3,
			trial_reviews_used = $4,
			onetime_reports_purchased = $5,
			onetime_reports_used = $6,
			subscription_ref = $7,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $8 AND version = $9
		RETURNING version
	`

	updated := ent
	err := r.db.QueryRow(
		ctx, query,
		ent.SubscriptionStatus, ent.SubscriptionType,
		ent.TrialLimit, ent.TrialReviewsUsed,
		ent.OneTimeReportsPurchased, ent.OneTimeReportsUsed,
		ent.SubscriptionRef,
		accountID, ent.Version,
	).Scan(&updated.Version)

	if errors.Is(err, pgx.ErrNoRows) {
		return ent, xerrors.ErrVersionConflict
	}
	if err != nil {
		return ent, fmt.Errorf("failed to update entitlement: %w", err)
	}

	return updated, nil
}

// SetPaymentCustomerRef records the gateway customer reference once.
// The reference is immutable after first write.
func (r *AccountRepository) SetPaymentCustomerRef(ctx context.Context, accountID int64, customerRef string) error {
	query := `
		UPDATE accounts
		SET payment_customer_ref = $1, updated_at = NOW()
		WHERE id = $2 AND payment_customer_ref IS NULL
	`

	tag, err := r.db.Exec(ctx, query, customerRef, accountID)
	if err != nil {
		return fmt.Errorf("failed to set payment customer ref: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrConflict
	}
	return nil
}

// MarkGatewayEventProcessed records a gateway event ID, returning false
// when the event was already applied. This is the webhook idempotency gate.
func (r *AccountRepository) MarkGatewayEventProcessed(ctx context.Context, eventID, kind string) (bool, error) {
	query := `
		INSERT INTO processed_gateway_events (event_id, kind)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, eventID, kind)
	if err != nil {
		return false, fmt.Errorf("failed to record gateway event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UnmarkGatewayEvent removes an event's idempotency row so a gateway
// redelivery can apply it. Used when the apply failed after the mark.
func (r *AccountRepository) UnmarkGatewayEvent(ctx context.Context, eventID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM processed_gateway_events WHERE event_id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to release gateway event: %w", err)
	}
	return nil
}

// List returns accounts for the admin listing, newest first.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*account.Account, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, acc)
	}

	return accounts, total, rows.Err()
}

// ListTrialAccountsNearLimit returns trial accounts with at most the given
// number of trial reports remaining. Used by the lifecycle email sweep.
func (r *AccountRepository) ListTrialAccountsNearLimit(ctx context.Context, remaining int) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE subscription_status = 'trial'
		  AND trial_limit - trial_reviews_used <= $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, remaining)
	if err != nil {
		return nil, fmt.Errorf("failed to list trial accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}

// ListByStatus returns accounts with the given subscription status.
func (r *AccountRepository) ListByStatus(ctx context.Context, status account.SubscriptionStatus) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE subscription_status = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts by status: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}
