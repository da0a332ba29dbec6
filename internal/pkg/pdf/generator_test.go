package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexinsight-service/internal/domain/report"
	"lexinsight-service/internal/domain/review"
)

func TestGenerateProducesValidPDF(t *testing.T) {
	g := NewGenerator()

	data := &ReportData{
		FirmName:  "Hale & Murrow LLP",
		Reference: "rpt_01J8ZKQ",
		Analysis: &report.Analysis{
			TotalReviews:  42,
			AverageRating: 4.31,
			Themes: []report.ThemeStat{
				{Name: "Communication", Mentions: 18, Percentage: 45.0},
				{Name: "Legal Expertise", Mentions: 12, Percentage: 30.0},
				{Name: "Cost/Value", Mentions: 10, Percentage: 25.0},
			},
			TopPraise: []review.Review{
				{Date: "2026-07-02", Rating: 5, ReviewText: "Kept me informed at every step and won my case."},
			},
			TopComplaints: []review.Review{
				{Date: "2026-06-11", Rating: 2, ReviewText: "Billing was confusing and responses were slow."},
			},
		},
		IsPaidUser:  false,
		GeneratedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}

	out, err := g.Generate(data)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestGenerateEmptyAnalysis(t *testing.T) {
	g := NewGenerator()

	out, err := g.Generate(&ReportData{
		FirmName:    "Solo Practice",
		Reference:   "rpt_empty",
		Analysis:    &report.Analysis{},
		IsPaidUser:  true,
		GeneratedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}
