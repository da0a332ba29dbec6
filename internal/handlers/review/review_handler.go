// internal/handlers/review/review_handler.go
package review

import (
	"net/http"
	"strconv"

	"lexinsight-service/internal/domain/review"
	"lexinsight-service/internal/middleware"
	xerrors "lexinsight-service/internal/pkg/errors"
	"lexinsight-service/internal/pkg/response"
	"lexinsight-service/internal/pkg/session"
	service "lexinsight-service/internal/service/review"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
	rateLimiter   *session.RateLimiter
}

func NewReviewHandler(reviewService *service.ReviewService, rateLimiter *session.RateLimiter) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		rateLimiter:   rateLimiter,
	}
}

// ========== Public Endpoints ==========

// SubmitFeedback accepts a feedback form post for a firm. No auth;
// rate limited per client IP.
func (h *ReviewHandler) SubmitFeedback(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("account_id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid account id", err)
		return
	}

	allowed, err := h.rateLimiter.CheckFeedbackSubmission(c.Request.Context(), c.ClientIP())
	if err == nil && !allowed {
		response.TooManyRequests(c, "too many submissions, try again later")
		return
	}

	var req review.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	rev, err := h.reviewService.SubmitFeedback(c.Request.Context(), accountID, &req)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to submit feedback", err)
		return
	}

	response.Success(c, http.StatusCreated, "feedback submitted", rev)
}

// ========== Firm Endpoints ==========

// ImportCSV bulk-loads reviews from an uploaded CSV file. Importing
// never charges a report credit.
func (h *ReviewHandler) ImportCSV(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "missing csv file upload", err)
		return
	}
	defer file.Close()

	result, err := h.reviewService.ImportCSV(c.Request.Context(), accountID, file)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to import reviews", err)
		return
	}

	response.Success(c, http.StatusOK, "reviews imported", result)
}

// List returns a page of the firm's reviews, newest first.
func (h *ReviewHandler) List(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)

	var filters review.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.reviewService.List(c.Request.Context(), accountID, filters.Page, filters.PageSize)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list reviews", err)
		return
	}

	response.Success(c, http.StatusOK, "reviews retrieved", result)
}

// DeleteAll removes every review for the firm.
func (h *ReviewHandler) DeleteAll(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)

	deleted, err := h.reviewService.DeleteAll(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to delete reviews", err)
		return
	}

	response.Success(c, http.StatusOK, "reviews deleted", gin.H{"deleted": deleted})
}
