// internal/service/analysis/analysis_service.go
package analysis

import (
	"math"
	"sort"
	"strings"

	"lexinsight-service/internal/domain/report"
	"lexinsight-service/internal/domain/review"
)

// TrialAnalysisCap is the number of most recent reviews analysed for
// accounts without a subscription or unused one-time credits.
const TrialAnalysisCap = 50

const (
	maxThemes     = 8
	maxHighlights = 10
)

// Theme names in display order.
var themeKeywords = []struct {
	name     string
	keywords []string
}{
	{"Communication", []string{"communication", "responsive", "returned calls", "kept me informed", "updates", "contact"}},
	{"Professionalism", []string{"professional", "courteous", "respectful", "polite", "demeanor", "ethical"}},
	{"Legal Expertise", []string{"knowledgeable", "experienced", "expert", "skilled", "competent", "expertise"}},
	{"Case Outcome", []string{"won", "successful", "settlement", "verdict", "result", "outcome", "resolved"}},
	{"Cost/Value", []string{"expensive", "affordable", "fees", "billing", "cost", "worth it", "value", "price"}},
	{"Responsiveness", []string{"quick", "slow", "delayed", "waiting", "timely", "immediately", "promptly"}},
	{"Compassion", []string{"caring", "understanding", "empathetic", "compassionate", "listened", "supportive"}},
	{"Staff Support", []string{"staff", "assistant", "paralegal", "secretary", "team", "office"}},
}

type AnalysisService struct{}

func NewAnalysisService() *AnalysisService {
	return &AnalysisService{}
}

// Analyze computes aggregate statistics over a firm's reviews.
// Reviews must be ordered newest first. When limited is true, only the
// most recent TrialAnalysisCap reviews are considered.
func (s *AnalysisService) Analyze(reviews []*review.Review, limited bool) *report.Analysis {
	analysisReviews := reviews
	if limited && len(analysisReviews) > TrialAnalysisCap {
		analysisReviews = analysisReviews[:TrialAnalysisCap]
	} else {
		limited = false
	}

	if len(analysisReviews) == 0 {
		return &report.Analysis{}
	}

	var ratingSum int
	for _, r := range analysisReviews {
		ratingSum += r.Rating
	}
	avgRating := float64(ratingSum) / float64(len(analysisReviews))

	return &report.Analysis{
		TotalReviews:  len(analysisReviews),
		AverageRating: math.Round(avgRating*100) / 100,
		Themes:        countThemes(analysisReviews),
		TopPraise:     pickHighlights(analysisReviews, func(rating int) bool { return rating >= 4 }),
		TopComplaints: pickHighlights(analysisReviews, func(rating int) bool { return rating <= 2 }),
		Limited:       limited,
	}
}

// countThemes tallies keyword mentions per theme. A review counts at
// most once per theme. Returns up to maxThemes, most mentioned first,
// with percentages over the total mention count.
func countThemes(reviews []*review.Review) []report.ThemeStat {
	counts := make(map[string]int)
	for _, r := range reviews {
		text := strings.ToLower(r.ReviewText)
		for _, theme := range themeKeywords {
			for _, kw := range theme.keywords {
				if strings.Contains(text, kw) {
					counts[theme.name]++
					break
				}
			}
		}
	}

	var stats []report.ThemeStat
	totalMentions := 0
	for _, theme := range themeKeywords {
		if n := counts[theme.name]; n > 0 {
			stats = append(stats, report.ThemeStat{Name: theme.name, Mentions: n})
			totalMentions += n
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Mentions > stats[j].Mentions
	})
	if len(stats) > maxThemes {
		stats = stats[:maxThemes]
	}

	for i := range stats {
		stats[i].Percentage = float64(stats[i].Mentions) / float64(totalMentions) * 100.0
	}

	return stats
}

func pickHighlights(reviews []*review.Review, match func(rating int) bool) []review.Review {
	var picked []review.Review
	for _, r := range reviews {
		if match(r.Rating) {
			picked = append(picked, *r)
			if len(picked) == maxHighlights {
				break
			}
		}
	}
	return picked
}
