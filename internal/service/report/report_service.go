// internal/service/report/report_service.go
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"lexinsight-service/internal/domain/account"
	"lexinsight-service/internal/domain/report"
	"lexinsight-service/internal/domain/review"
	"lexinsight-service/internal/entitlement"
	xerrors "lexinsight-service/internal/pkg/errors"
	"lexinsight-service/internal/pkg/pdf"
	"lexinsight-service/internal/repository/postgres"
	"lexinsight-service/internal/service/analysis"
)

const lockTTL = 10 * time.Second

// AccountStore is the slice of the account repository the debit path needs.
type AccountStore interface {
	FindByID(ctx context.Context, id int64) (*account.Account, error)
	UpdateEntitlement(ctx context.Context, accountID int64, ent account.Entitlement) (account.Entitlement, error)
}

// ReviewStore loads the reviews feeding the analysis.
type ReviewStore interface {
	ListRecent(ctx context.Context, accountID int64, limit int) ([]*review.Review, error)
}

// ReportStore persists the report history.
type ReportStore interface {
	Create(ctx context.Context, rep *report.Report) error
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*report.Report, int64, error)
}

// AccountLocker serializes entitlement writes per account.
type AccountLocker interface {
	WithAccountLock(ctx context.Context, accountID int64, ttl time.Duration, fn func() error) error
}

// Notifier pushes report events to connected clients.
type Notifier interface {
	NotifyReportGenerated(accountID int64, reference string, status account.StatusView)
}

type ReportService struct {
	accounts AccountStore
	reviews  ReviewStore
	reports  ReportStore
	locker   AccountLocker
	analyzer *analysis.AnalysisService
	pdfGen   *pdf.Generator
	notifier Notifier
	logger   *zap.Logger
}

func NewReportService(
	accounts AccountStore,
	reviews ReviewStore,
	reports ReportStore,
	locker AccountLocker,
	analyzer *analysis.AnalysisService,
	pdfGen *pdf.Generator,
	notifier Notifier,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		accounts: accounts,
		reviews:  reviews,
		reports:  reports,
		locker:   locker,
		analyzer: analyzer,
		pdfGen:   pdfGen,
		notifier: notifier,
		logger:   logger,
	}
}

// Result bundles a generated report with its rendered PDF.
type Result struct {
	Report   *report.Report
	Analysis *report.Analysis
	PDF      []byte
	Status   account.StatusView
}

// Generate produces a client feedback report for the account, charging
// exactly one report credit from the highest-precedence bucket. The
// whole check-debit-generate sequence runs under the account lock, and
// a lost optimistic-version race is retried once before giving up.
func (s *ReportService) Generate(ctx context.Context, accountID int64) (*Result, error) {
	var result *Result

	err := s.locker.WithAccountLock(ctx, accountID, lockTTL, func() error {
		var err error
		result, err = s.generateLocked(ctx, accountID, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyReportGenerated(accountID, result.Report.Reference, result.Status)

	s.logger.Info("report generated",
		zap.Int64("account_id", accountID),
		zap.String("reference", result.Report.Reference),
		zap.String("bucket", result.Report.BucketCharged),
		zap.Int("reviews", result.Report.TotalReviews),
	)

	return result, nil
}

func (s *ReportService) generateLocked(ctx context.Context, accountID int64, retry bool) (*Result, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	bucket, ok := entitlement.ResolveBucket(acc.Entitlement)
	if !ok {
		return nil, xerrors.ErrQuotaExceeded
	}

	reviews, err := s.reviews.ListRecent(ctx, accountID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	if len(reviews) == 0 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "no reviews to analyze")
	}

	limited := bucket == entitlement.BucketTrial
	result := s.analyzer.Analyze(reviews, limited)

	debited, err := entitlement.Debit(acc.Entitlement, bucket)
	if err != nil {
		return nil, err
	}

	updated, err := s.accounts.UpdateEntitlement(ctx, accountID, debited)
	if err != nil {
		// A concurrent writer advanced the version. Re-read and retry
		// the whole resolution once; the bucket may have changed.
		if xerrors.Is(err, xerrors.ErrVersionConflict) && retry {
			return s.generateLocked(ctx, accountID, false)
		}
		if xerrors.Is(err, xerrors.ErrVersionConflict) {
			return nil, xerrors.ErrQuotaExceeded
		}
		return nil, fmt.Errorf("failed to charge report credit: %w", err)
	}

	rep := &report.Report{
		Reference:     newReference(),
		AccountID:     accountID,
		BucketCharged: string(bucket),
		TotalReviews:  result.TotalReviews,
		AverageRating: result.AverageRating,
		Themes:        themeNames(result.Themes),
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, fmt.Errorf("failed to record report: %w", err)
	}

	pdfBytes, err := s.pdfGen.Generate(&pdf.ReportData{
		FirmName:    acc.FirmName,
		Reference:   rep.Reference,
		Analysis:    result,
		IsPaidUser:  bucket != entitlement.BucketTrial,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	return &Result{
		Report:   rep,
		Analysis: result,
		PDF:      pdfBytes,
		Status:   entitlement.Describe(updated),
	}, nil
}

// Preview runs the analysis without charging a credit. Trial accounts
// still see the capped view they would get in a generated report.
func (s *ReportService) Preview(ctx context.Context, accountID int64) (*report.Analysis, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	reviews, err := s.reviews.ListRecent(ctx, accountID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}

	bucket, ok := entitlement.ResolveBucket(acc.Entitlement)
	limited := !ok || bucket == entitlement.BucketTrial
	return s.analyzer.Analyze(reviews, limited), nil
}

// Status returns the entitlement projection for an account.
func (s *ReportService) Status(ctx context.Context, accountID int64) (account.StatusView, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return account.StatusView{}, err
	}
	return entitlement.Describe(acc.Entitlement), nil
}

// History returns a page of the account's generated reports, newest first.
func (s *ReportService) History(ctx context.Context, accountID int64, page, pageSize int) ([]*report.Report, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.reports.ListByAccount(ctx, accountID, pageSize, (page-1)*pageSize)
}

func newReference() string {
	return "rpt_" + strings.ToLower(ulid.Make().String())
}

func themeNames(themes []report.ThemeStat) []string {
	names := make([]string, 0, len(themes))
	for _, t := range themes {
		names = append(names, t.Name)
	}
	return names
}

var _ AccountStore = (*postgres.AccountRepository)(nil)
var _ ReviewStore = (*postgres.ReviewRepository)(nil)
var _ ReportStore = (*postgres.ReportRepository)(nil)
