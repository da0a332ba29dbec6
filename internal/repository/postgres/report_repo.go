// internal/repository/postgres/report_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"lexinsight-service/internal/domain/report"
	xerrors "lexinsight-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type ReportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create records a generated report in the history.
func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	query := `
		INSERT INTO reports (reference, account_id, bucket_charged, total_reviews, average_rating, themes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		rep.Reference, rep.AccountID, rep.BucketCharged,
		rep.TotalReviews, rep.AverageRating, pq.Array(rep.Themes),
	).Scan(&rep.ID, &rep.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create report record: %w", err)
	}
	return nil
}

// FindByReference retrieves a report by its reference, scoped to an account.
func (r *ReportRepository) FindByReference(ctx context.Context, accountID int64, reference string) (*report.Report, error) {
	query := `
		SELECT id, reference, account_id, bucket_charged, total_reviews, average_rating, themes, created_at
		FROM reports
		WHERE reference = $1 AND account_id = $2
	`

	var rep report.Report
	err := r.db.QueryRow(ctx, query, reference, accountID).Scan(
		&rep.ID, &rep.Reference, &rep.AccountID, &rep.BucketCharged,
		&rep.TotalReviews, &rep.AverageRating, pq.Array(&rep.Themes), &rep.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return &rep, nil
}

// ListByAccount returns an account's report history, newest first.
func (r *ReportRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*report.Report, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reports WHERE account_id = $1`, accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	query := `
		SELECT id, reference, account_id, bucket_charged, total_reviews, average_rating, themes, created_at
		FROM reports
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*report.Report
	for rows.Next() {
		var rep report.Report
		if err := rows.Scan(
			&rep.ID, &rep.Reference, &rep.AccountID, &rep.BucketCharged,
			&rep.TotalReviews, &rep.AverageRating, pq.Array(&rep.Themes), &rep.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, &rep)
	}

	return reports, total, rows.Err()
}
