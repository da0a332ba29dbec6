// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"lexinsight-service/internal/config"
	"lexinsight-service/internal/db"
	accountHandler "lexinsight-service/internal/handlers/account"
	authHandler "lexinsight-service/internal/handlers/auth"
	billingHandler "lexinsight-service/internal/handlers/billing"
	reportHandler "lexinsight-service/internal/handlers/report"
	reviewHandler "lexinsight-service/internal/handlers/review"
	wsHandler "lexinsight-service/internal/handlers/websocket"
	"lexinsight-service/internal/middleware"
	"lexinsight-service/internal/pkg/jwt"
	"lexinsight-service/internal/pkg/lock"
	"lexinsight-service/internal/pkg/pdf"
	"lexinsight-service/internal/pkg/session"
	"lexinsight-service/internal/repository/postgres"
	accountUsecase "lexinsight-service/internal/service/accounts"
	analysisUsecase "lexinsight-service/internal/service/analysis"
	authUsecase "lexinsight-service/internal/service/auth"
	billingUsecase "lexinsight-service/internal/service/billing"
	"lexinsight-service/internal/service/email"
	reportUsecase "lexinsight-service/internal/service/report"
	reviewUsecase "lexinsight-service/internal/service/review"
	"lexinsight-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const lifecycleSweepInterval = 24 * time.Hour

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager, Rate Limiter & Account Lock -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)
	locker := lock.NewLocker(redisClient)

	// ----- Email -----
	emailSender := email.NewEmailSender(
		s.cfg.SMTPHost,
		s.cfg.SMTPPort,
		s.cfg.SMTPUser,
		s.cfg.SMTPPass,
		s.cfg.SMTPFromName,
		s.cfg.SMTPSecure,
	)

	// ----- Repositories -----
	accountRepo := postgres.NewAccountRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	dbWrapper := postgres.NewDB(pool)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(jwtManager.Verifier, sessionManager, logger)
	go hub.Run(ctx)

	// ----- Services -----
	authService := authUsecase.NewAuthService(
		accountRepo,
		jwtManager,
		sessionManager,
		rateLimiter,
		s.cfg.TrialReportLimit,
		logger,
	)
	analysisService := analysisUsecase.NewAnalysisService()
	reviewService := reviewUsecase.NewReviewService(reviewRepo, dbWrapper, logger)
	reportService := reportUsecase.NewReportService(
		accountRepo,
		reviewRepo,
		reportRepo,
		locker,
		analysisService,
		pdf.NewGenerator(),
		hub,
		logger,
	)
	billingService := billingUsecase.NewBillingService(
		billingUsecase.Config{
			SecretKey:     s.cfg.StripeSecretKey,
			WebhookSecret: s.cfg.StripeWebhookSecret,
			PriceMonthly:  s.cfg.PriceMonthly,
			PriceAnnual:   s.cfg.PriceAnnual,
			PriceOneTime:  s.cfg.PriceOneTime,
		},
		accountRepo,
		locker,
		hub,
		logger,
	)
	accountService := accountUsecase.NewAccountService(accountRepo, locker, logger)

	// ----- Lifecycle sweeper -----
	sweeper := email.NewLifecycleSweeper(accountRepo, emailSender, logger)
	go s.runLifecycleSweeps(ctx, sweeper)

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService)
	reviewHandlerInst := reviewHandler.NewReviewHandler(reviewService, rateLimiter)
	reportHandlerInst := reportHandler.NewReportHandler(reportService, rateLimiter)
	billingHandlerInst := billingHandler.NewBillingHandler(billingService, logger)
	accountHandlerInst := accountHandler.NewAccountHandler(accountService)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.AllowedOrigins),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:    authHandlerInst,
		ReviewHandler:  reviewHandlerInst,
		ReportHandler:  reportHandlerInst,
		BillingHandler: billingHandlerInst,
		AccountHandler: accountHandlerInst,
		WSHandler:      wsHandlerInst,
		AuthMiddleware: authMiddleware,
	}
	SetupRouter(s.engine, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}

// runLifecycleSweeps fires the trial-reminder and billing-warning
// sweep once at startup and then daily.
func (s *Server) runLifecycleSweeps(ctx context.Context, sweeper *email.LifecycleSweeper) {
	ticker := time.NewTicker(lifecycleSweepInterval)
	defer ticker.Stop()

	for {
		if err := sweeper.Run(ctx); err != nil {
			s.logger.Error("lifecycle sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
