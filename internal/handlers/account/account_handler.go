// internal/handlers/account/account_handler.go
package account

import (
	"net/http"
	"strconv"

	"lexinsight-service/internal/domain/account"
	xerrors "lexinsight-service/internal/pkg/errors"
	"lexinsight-service/internal/pkg/response"
	service "lexinsight-service/internal/service/accounts"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// ========== Admin Endpoints ==========

// List returns a page of accounts, optionally filtered by status.
func (h *AccountHandler) List(c *gin.Context) {
	var filters account.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.accountService.List(c.Request.Context(), &filters)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list accounts", err)
		return
	}

	response.Success(c, http.StatusOK, "accounts retrieved", result)
}

// GrantCredits adds one-time report credits to an account.
func (h *AccountHandler) GrantCredits(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid account id", err)
		return
	}

	var req account.GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	acc, err := h.accountService.GrantCredits(c.Request.Context(), accountID, req.Credits)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "account not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to grant credits", err)
		return
	}

	response.Success(c, http.StatusOK, "credits granted", acc)
}

// SetSubscription overrides an account's subscription status and plan.
func (h *AccountHandler) SetSubscription(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid account id", err)
		return
	}

	var req account.SetSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	acc, err := h.accountService.SetSubscription(c.Request.Context(), accountID, &req)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "account not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to update subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription updated", acc)
}
