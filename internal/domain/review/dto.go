// internal/domain/review/dto.go
package review

type SubmitFeedbackRequest struct {
	Date       string `json:"date"`
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	ReviewText string `json:"review_text" binding:"required"`
}

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type ListFilters struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

type ListResponse struct {
	Reviews  []Review `json:"reviews"`
	Total    int64    `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}
