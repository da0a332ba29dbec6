// internal/service/review/review_service.go
package review

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"lexinsight-service/internal/domain/review"
	xerrors "lexinsight-service/internal/pkg/errors"
	"lexinsight-service/internal/repository/postgres"

	"go.uber.org/zap"
)

type ReviewService struct {
	reviewRepo *postgres.ReviewRepository
	db         *postgres.DB
	logger     *zap.Logger
}

func NewReviewService(reviewRepo *postgres.ReviewRepository, db *postgres.DB, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		db:         db,
		logger:     logger,
	}
}

// SubmitFeedback records a single review from the public feedback form.
func (s *ReviewService) SubmitFeedback(ctx context.Context, accountID int64, req *review.SubmitFeedbackRequest) (*review.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "rating must be between 1 and 5")
	}

	rev := &review.Review{
		AccountID:  accountID,
		Date:       req.Date,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	}
	if err := s.reviewRepo.Create(ctx, rev); err != nil {
		return nil, err
	}

	s.logger.Info("feedback submitted",
		zap.Int64("account_id", accountID),
		zap.Int("rating", req.Rating),
	)

	return rev, nil
}

// ImportCSV bulk-imports reviews from a CSV stream. The file must carry
// the header columns date, rating and review_text. Rows with missing
// values or an out-of-range rating are skipped, not fatal. Importing
// never charges a report credit.
func (s *ReviewService) ImportCSV(ctx context.Context, accountID int64, r io.Reader) (*review.ImportResult, error) {
	toInsert, skipped, err := parseReviewCSV(accountID, r)
	if err != nil {
		return nil, err
	}

	if len(toInsert) > 0 {
		tx, err := s.db.BeginTx(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := s.reviewRepo.BulkInsertWithTx(ctx, tx, toInsert); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit import: %w", err)
		}
	}

	s.logger.Info("csv import completed",
		zap.Int64("account_id", accountID),
		zap.Int("imported", len(toInsert)),
		zap.Int("skipped", skipped),
	)

	return &review.ImportResult{Imported: len(toInsert), Skipped: skipped}, nil
}

func parseReviewCSV(accountID int64, r io.Reader) ([]*review.Review, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, xerrors.Wrap(xerrors.ErrInvalidInput, "failed to read CSV header")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"date", "rating", "review_text"} {
		if _, ok := cols[required]; !ok {
			return nil, 0, xerrors.Wrap(xerrors.ErrInvalidInput,
				"the CSV file must include the header columns: date, rating, review_text")
		}
	}

	var toInsert []*review.Review
	skipped := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, xerrors.Wrap(xerrors.ErrInvalidInput, "malformed CSV row")
		}

		date := fieldAt(record, cols["date"])
		ratingStr := fieldAt(record, cols["rating"])
		text := fieldAt(record, cols["review_text"])

		if date == "" || ratingStr == "" || text == "" {
			skipped++
			continue
		}

		rating, err := strconv.Atoi(ratingStr)
		if err != nil || rating < 1 || rating > 5 {
			skipped++
			continue
		}

		toInsert = append(toInsert, &review.Review{
			AccountID:  accountID,
			Date:       date,
			Rating:     rating,
			ReviewText: text,
		})
	}

	return toInsert, skipped, nil
}

// List returns a page of the account's reviews.
func (s *ReviewService) List(ctx context.Context, accountID int64, page, pageSize int) (*review.ListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	reviews, total, err := s.reviewRepo.ListByAccount(ctx, accountID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	out := make([]review.Review, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, *r)
	}

	return &review.ListResponse{
		Reviews:  out,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// DeleteAll removes every review for an account.
func (s *ReviewService) DeleteAll(ctx context.Context, accountID int64) (int64, error) {
	deleted, err := s.reviewRepo.DeleteByAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("reviews deleted",
		zap.Int64("account_id", accountID),
		zap.Int64("count", deleted),
	)
	return deleted, nil
}

func fieldAt(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
