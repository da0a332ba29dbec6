// internal/domain/report/entity.go
package report

import (
	"time"

	"lexinsight-service/internal/domain/review"
)

// ThemeStat is one analyzed feedback theme with its mention share.
type ThemeStat struct {
	Name       string  `json:"name"`
	Mentions   int     `json:"mentions"`
	Percentage float64 `json:"percentage"`
}

// Analysis is the aggregate result of theme analysis over an account's
// reviews. Limited marks trial-tier runs capped at the analysis window.
type Analysis struct {
	TotalReviews  int             `json:"total_reviews"`
	AverageRating float64         `json:"avg_rating"`
	Themes        []ThemeStat     `json:"themes"`
	TopPraise     []review.Review `json:"top_praise"`
	TopComplaints []review.Review `json:"top_complaints"`
	Limited       bool            `json:"limited"`
}

// Report is the persisted record of one generated report.
type Report struct {
	ID            int64     `json:"id" db:"id"`
	Reference     string    `json:"reference" db:"reference"`
	AccountID     int64     `json:"account_id" db:"account_id"`
	BucketCharged string    `json:"bucket_charged" db:"bucket_charged"`
	TotalReviews  int       `json:"total_reviews" db:"total_reviews"`
	AverageRating float64   `json:"avg_rating" db:"avg_rating"`
	Themes        []string  `json:"themes" db:"themes"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
