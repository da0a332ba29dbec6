// internal/repository/postgres/review_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"lexinsight-service/internal/domain/review"
	xerrors "lexinsight-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepository struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a single review.
func (r *ReviewRepository) Create(ctx context.Context, rev *review.Review) error {
	query := `
		INSERT INTO reviews (account_id, review_date, rating, review_text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		rev.AccountID, rev.Date, rev.Rating, rev.ReviewText,
	).Scan(&rev.ID, &rev.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// BulkInsertWithTx inserts a batch of reviews inside a transaction.
// Used by the CSV import so a malformed file never half-imports.
func (r *ReviewRepository) BulkInsertWithTx(ctx context.Context, tx pgx.Tx, reviews []*review.Review) error {
	query := `
		INSERT INTO reviews (account_id, review_date, rating, review_text)
		VALUES ($1, $2, $3, $4)
	`

	for _, rev := range reviews {
		if _, err := tx.Exec(ctx, query, rev.AccountID, rev.Date, rev.Rating, rev.ReviewText); err != nil {
			return fmt.Errorf("failed to insert review: %w", err)
		}
	}
	return nil
}

// FindByID retrieves a single review scoped to an account.
func (r *ReviewRepository) FindByID(ctx context.Context, accountID, id int64) (*review.Review, error) {
	query := `
		SELECT id, account_id, review_date, rating, review_text, created_at
		FROM reviews
		WHERE id = $1 AND account_id = $2
	`

	var rev review.Review
	err := r.db.QueryRow(ctx, query, id, accountID).Scan(
		&rev.ID, &rev.AccountID, &rev.Date, &rev.Rating, &rev.ReviewText, &rev.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}

	return &rev, nil
}

// ListByAccount returns an account's reviews, newest first.
func (r *ReviewRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*review.Review, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE account_id = $1`, accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := `
		SELECT id, account_id, review_date, rating, review_text, created_at
		FROM reviews
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*review.Review
	for rows.Next() {
		var rev review.Review
		if err := rows.Scan(&rev.ID, &rev.AccountID, &rev.Date, &rev.Rating, &rev.ReviewText, &rev.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, &rev)
	}

	return reviews, total, rows.Err()
}

// ListRecent returns the most recent reviews for analysis, capped at limit.
// A limit of zero means no cap.
func (r *ReviewRepository) ListRecent(ctx context.Context, accountID int64, limit int) ([]*review.Review, error) {
	query := `
		SELECT id, account_id, review_date, rating, review_text, created_at
		FROM reviews
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{accountID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*review.Review
	for rows.Next() {
		var rev review.Review
		if err := rows.Scan(&rev.ID, &rev.AccountID, &rev.Date, &rev.Rating, &rev.ReviewText, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, &rev)
	}

	return reviews, rows.Err()
}

// CountByAccount returns the total review count for an account.
func (r *ReviewRepository) CountByAccount(ctx context.Context, accountID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE account_id = $1`, accountID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return total, nil
}

// DeleteByAccount removes all reviews for an account.
func (r *ReviewRepository) DeleteByAccount(ctx context.Context, accountID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reviews: %w", err)
	}
	return tag.RowsAffected(), nil
}
