// internal/handlers/report/report_handler.go
package report

import (
	"fmt"
	"net/http"
	"strconv"

	"lexinsight-service/internal/middleware"
	xerrors "lexinsight-service/internal/pkg/errors"
	"lexinsight-service/internal/pkg/response"
	"lexinsight-service/internal/pkg/session"
	service "lexinsight-service/internal/service/report"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService *service.ReportService
	rateLimiter   *session.RateLimiter
}

func NewReportHandler(reportService *service.ReportService, rateLimiter *session.RateLimiter) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		rateLimiter:   rateLimiter,
	}
}

// Generate charges one report credit and returns the rendered PDF.
// Exhausted quota answers 402 with the current entitlement status so
// the client can offer an upgrade path.
func (h *ReportHandler) Generate(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)

	allowed, err := h.rateLimiter.CheckReportGeneration(c.Request.Context(), accountID)
	if err == nil && !allowed {
		response.TooManyRequests(c, "too many report requests, try again later")
		return
	}

	result, err := h.reportService.Generate(c.Request.Context(), accountID)
	if err != nil {
		switch {
		case xerrors.Is(err, xerrors.ErrQuotaExceeded):
			status, statusErr := h.reportService.Status(c.Request.Context(), accountID)
			if statusErr != nil {
				response.PaymentRequired(c, "no reports remaining", nil)
				return
			}
			response.PaymentRequired(c, "no reports remaining", status)
		case xerrors.Is(err, xerrors.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
		default:
			response.Error(c, http.StatusInternalServerError, "failed to generate report", err)
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", result.Report.Reference))
	c.Header("X-Report-Reference", result.Report.Reference)
	c.Data(http.StatusOK, "application/pdf", result.PDF)
}

// Preview returns the analysis for the dashboard without charging a
// credit.
func (h *ReportHandler) Preview(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)

	analysis, err := h.reportService.Preview(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to analyze reviews", err)
		return
	}

	response.Success(c, http.StatusOK, "analysis retrieved", analysis)
}

// History lists the firm's generated reports, newest first.
func (h *ReportHandler) History(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	reports, total, err := h.reportService.History(c.Request.Context(), accountID, page, pageSize)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list reports", err)
		return
	}

	response.Success(c, http.StatusOK, "reports retrieved", gin.H{
		"reports": reports,
		"total":   total,
	})
}

// Status returns the account's entitlement projection.
func (h *ReportHandler) Status(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)

	status, err := h.reportService.Status(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to load account status", err)
		return
	}

	response.Success(c, http.StatusOK, "status retrieved", status)
}
