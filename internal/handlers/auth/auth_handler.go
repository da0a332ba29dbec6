// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"lexinsight-service/internal/domain/account"
	"lexinsight-service/internal/middleware"
	xerrors "lexinsight-service/internal/pkg/errors"
	"lexinsight-service/internal/pkg/response"
	service "lexinsight-service/internal/service/auth"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates a new firm account
func (h *AuthHandler) Register(c *gin.Context) {
	var req account.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrDuplicateEntry) {
			response.Error(c, http.StatusConflict, "an account with this email already exists", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to register", err)
		return
	}

	response.Success(c, http.StatusCreated, "account registered", result)
}

// Login authenticates and opens a session
func (h *AuthHandler) Login(c *gin.Context) {
	var req account.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case xerrors.Is(err, xerrors.ErrRateLimited):
			response.TooManyRequests(c, "too many login attempts, try again later")
		case xerrors.Is(err, xerrors.ErrUnauthorized):
			response.Unauthorized(c, "invalid email or password")
		default:
			response.Error(c, http.StatusInternalServerError, "failed to log in", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "logged in", result)
}

// Refresh exchanges a refresh token for new credentials
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Unauthorized(c, "invalid or expired refresh token")
		return
	}

	response.Success(c, http.StatusOK, "token refreshed", result)
}

// Logout tears down the current session
func (h *AuthHandler) Logout(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)
	jti := middleware.MustGetJTI(c)

	if err := h.authService.Logout(c.Request.Context(), accountID, jti); err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to log out", err)
		return
	}

	response.Success(c, http.StatusOK, "logged out", nil)
}

// Me returns the authenticated account
func (h *AuthHandler) Me(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)

	acc, err := h.authService.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		response.NotFound(c, "account not found")
		return
	}

	response.Success(c, http.StatusOK, "account retrieved", acc)
}
