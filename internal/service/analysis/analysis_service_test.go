package analysis

import (
	"fmt"
	"testing"

	"lexinsight-service/internal/domain/review"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeReview(rating int, text string) *review.Review {
	return &review.Review{Rating: rating, ReviewText: text}
}

func TestAnalyzeEmpty(t *testing.T) {
	svc := NewAnalysisService()

	result := svc.Analyze(nil, false)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.TotalReviews)
	assert.Zero(t, result.AverageRating)
	assert.Empty(t, result.Themes)
	assert.False(t, result.Limited)
}

func TestAnalyzeAverageRatingRounded(t *testing.T) {
	svc := NewAnalysisService()

	reviews := []*review.Review{
		makeReview(5, "great"),
		makeReview(4, "good"),
		makeReview(4, "good"),
	}

	result := svc.Analyze(reviews, false)
	// 13/3 = 4.333... rounds to two decimals
	assert.Equal(t, 4.33, result.AverageRating)
	assert.Equal(t, 3, result.TotalReviews)
}

func TestAnalyzeThemeCountedOncePerReview(t *testing.T) {
	svc := NewAnalysisService()

	// Two communication keywords in one review must count once.
	reviews := []*review.Review{
		makeReview(5, "Great communication, very responsive and kept me informed"),
		makeReview(4, "The team was professional"),
	}

	result := svc.Analyze(reviews, false)
	require.Len(t, result.Themes, 2)

	byName := map[string]int{}
	for _, th := range result.Themes {
		byName[th.Name] = th.Mentions
	}
	assert.Equal(t, 1, byName["Communication"])
	assert.Equal(t, 1, byName["Professionalism"])
}

func TestAnalyzeThemesSortedWithPercentages(t *testing.T) {
	svc := NewAnalysisService()

	reviews := []*review.Review{
		makeReview(5, "very responsive communication"),
		makeReview(5, "excellent communication throughout"),
		makeReview(3, "knowledgeable attorney"),
		makeReview(1, "too expensive"),
	}

	result := svc.Analyze(reviews, false)
	require.Len(t, result.Themes, 3)

	assert.Equal(t, "Communication", result.Themes[0].Name)
	assert.Equal(t, 2, result.Themes[0].Mentions)
	assert.InDelta(t, 50.0, result.Themes[0].Percentage, 0.01)
	assert.InDelta(t, 25.0, result.Themes[1].Percentage, 0.01)

	for i := 1; i < len(result.Themes); i++ {
		assert.GreaterOrEqual(t, result.Themes[i-1].Mentions, result.Themes[i].Mentions)
	}
}

func TestAnalyzeHighlights(t *testing.T) {
	svc := NewAnalysisService()

	var reviews []*review.Review
	for i := 0; i < 15; i++ {
		reviews = append(reviews, makeReview(5, fmt.Sprintf("praise %d", i)))
	}
	for i := 0; i < 15; i++ {
		reviews = append(reviews, makeReview(1, fmt.Sprintf("complaint %d", i)))
	}
	reviews = append(reviews, makeReview(3, "neutral"))

	result := svc.Analyze(reviews, false)
	assert.Len(t, result.TopPraise, 10)
	assert.Len(t, result.TopComplaints, 10)
	for _, r := range result.TopPraise {
		assert.GreaterOrEqual(t, r.Rating, 4)
	}
	for _, r := range result.TopComplaints {
		assert.LessOrEqual(t, r.Rating, 2)
	}
}

func TestAnalyzeLimitedCapsMostRecent(t *testing.T) {
	svc := NewAnalysisService()

	// Newest first: the first TrialAnalysisCap reviews are rated 5,
	// the older remainder rated 1. A capped run must only see fives.
	var reviews []*review.Review
	for i := 0; i < TrialAnalysisCap; i++ {
		reviews = append(reviews, makeReview(5, "recent"))
	}
	for i := 0; i < 30; i++ {
		reviews = append(reviews, makeReview(1, "old"))
	}

	result := svc.Analyze(reviews, true)
	assert.True(t, result.Limited)
	assert.Equal(t, TrialAnalysisCap, result.TotalReviews)
	assert.Equal(t, 5.0, result.AverageRating)
}

func TestAnalyzeLimitedUnderCap(t *testing.T) {
	svc := NewAnalysisService()

	reviews := []*review.Review{
		makeReview(4, "good"),
		makeReview(2, "slow to respond"),
	}

	// Fewer reviews than the cap means nothing was cut off.
	result := svc.Analyze(reviews, true)
	assert.False(t, result.Limited)
	assert.Equal(t, 2, result.TotalReviews)
}
