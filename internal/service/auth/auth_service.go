// internal/service/auth/auth_service.go
package auth

import (
	"context"
	"fmt"
	"time"

	"lexinsight-service/internal/domain/account"
	xerrors "lexinsight-service/internal/pkg/errors"
	"lexinsight-service/internal/pkg/jwt"
	"lexinsight-service/internal/pkg/session"
	"lexinsight-service/internal/repository/postgres"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	accountRepo    *postgres.AccountRepository
	jwtManager     *jwt.Manager
	sessionManager *session.Manager
	rateLimiter    *session.RateLimiter
	trialLimit     int
	logger         *zap.Logger
}

func NewAuthService(
	accountRepo *postgres.AccountRepository,
	jwtManager *jwt.Manager,
	sessionManager *session.Manager,
	rateLimiter *session.RateLimiter,
	trialLimit int,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		accountRepo:    accountRepo,
		jwtManager:     jwtManager,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		trialLimit:     trialLimit,
		logger:         logger,
	}
}

// ========== Registration ==========

// Register creates a new firm account with a fresh trial entitlement.
func (s *AuthService) Register(ctx context.Context, req *account.RegisterRequest) (*account.LoginResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc := &account.Account{
		Email:        req.Email,
		FirmName:     req.FirmName,
		PasswordHash: string(hash),
		Entitlement: account.Entitlement{
			SubscriptionStatus: account.SubscriptionStatusTrial,
			SubscriptionType:   account.PlanTypeNone,
			TrialLimit:         s.trialLimit,
		},
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		if xerrors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, xerrors.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account registered",
		zap.Int64("account_id", acc.ID),
		zap.String("firm_name", acc.FirmName),
	)

	return s.issueTokens(ctx, acc, req.IPAddress, req.UserAgent)
}

// ========== Login ==========

// Login authenticates an account and opens a session.
func (s *AuthService) Login(ctx context.Context, req *account.LoginRequest) (*account.LoginResponse, error) {
	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, req.IPAddress, req.Email)
	if err != nil {
		s.logger.Warn("rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		s.logger.Warn("login rate limited",
			zap.String("ip", req.IPAddress),
			zap.Int64("remaining", remaining),
		)
		return nil, xerrors.ErrRateLimited
	}

	acc, err := s.accountRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		return nil, xerrors.ErrUnauthorized
	}

	if err := s.rateLimiter.ResetLoginAttempts(ctx, req.IPAddress, req.Email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	return s.issueTokens(ctx, acc, req.IPAddress, req.UserAgent)
}

func (s *AuthService) issueTokens(ctx context.Context, acc *account.Account, ip, userAgent string) (*account.LoginResponse, error) {
	accessToken, jti, err := s.jwtManager.Generator.GenerateAccessToken(acc.ID, acc.FirmName, acc.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, _, err := s.jwtManager.Generator.GenerateRefreshToken(acc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtManager.Generator.Ttl)

	sess := &session.SessionData{
		JTI:            jti,
		AccountID:      acc.ID,
		Email:          acc.Email,
		FirmName:       acc.FirmName,
		IsAdmin:        acc.IsAdmin,
		IPAddress:      ip,
		UserAgent:      userAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	}
	if err := s.sessionManager.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &account.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Account:      acc,
	}, nil
}

// ========== Token validation ==========

// ValidateToken verifies an access token and its backing session.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, err.Error())
	}

	blacklisted, err := s.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("blacklist check failed", zap.Error(err))
	} else if blacklisted {
		return nil, xerrors.ErrSessionExpired
	}

	if _, err := s.sessionManager.GetSession(ctx, claims.AccountID, claims.ID); err != nil {
		return nil, xerrors.ErrSessionExpired
	}

	return claims, nil
}

// Refresh exchanges a refresh token for a new access token and session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*account.LoginResponse, error) {
	claims, err := s.jwtManager.Verifier.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, err.Error())
	}

	acc, err := s.accountRepo.FindByID(ctx, claims.AccountID)
	if err != nil {
		return nil, xerrors.ErrUnauthorized
	}

	return s.issueTokens(ctx, acc, ip, userAgent)
}

// ========== Logout ==========

// Logout tears down the session and revokes the access token.
func (s *AuthService) Logout(ctx context.Context, accountID int64, jti string) error {
	if err := s.sessionManager.InvalidateSession(ctx, accountID, jti); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	ttl := s.jwtManager.Generator.Ttl
	if err := s.sessionManager.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Warn("failed to blacklist token", zap.Error(err))
	}

	return nil
}

// GetAccount loads the authenticated account.
func (s *AuthService) GetAccount(ctx context.Context, accountID int64) (*account.Account, error) {
	return s.accountRepo.FindByID(ctx, accountID)
}
