package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colin330smith/callbot-ai-sub000/config"
	"github.com/colin330smith/callbot-ai-sub000/handler"
	"github.com/colin330smith/callbot-ai-sub000/middleware"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/colin330smith/callbot-ai-sub000/pkg/ratelimit"
	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/colin330smith/callbot-ai-sub000/store"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	ctx := context.Background()

	// Database
	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	subscriptions := store.NewSubscriptionRepository(pool)
	contracts := store.NewContractRepository(pool)
	teams := store.NewTeamRepository(pool)
	leads := store.NewLeadRepository(pool)
	serviceRequests := store.NewServiceRequestRepository(pool)

	// Optional document vault
	var vaultSvc *service.VaultService
	if cfg.Vault.Enabled {
		vaultSvc, err = service.NewVaultService(&cfg.Vault)
		if err != nil {
			slog.Error("failed to initialize vault storage", "error", err)
			os.Exit(1)
		}
		if err := vaultSvc.EnsureBucket(ctx); err != nil {
			slog.Error("failed to ensure vault bucket", "error", err)
			os.Exit(1)
		}
		slog.Info("document vault enabled", "bucket", cfg.Vault.Bucket)
	}

	// Services
	limiter := ratelimit.New(time.Minute)
	defer limiter.Stop()

	extractor := service.NewExtractor()
	anthropic := service.NewAnthropicClient(&cfg.Anthropic)
	analyzer := service.NewAnalyzer(anthropic, &cfg.Anthropic)
	stripeSvc := service.NewStripeService(&cfg.Stripe)
	emailSvc := service.NewEmailService(&cfg.Resend)
	nurtureSvc := service.NewNurtureService(leads, emailSvc)

	// Handlers
	analyzeHandler := handler.NewAnalyzeHandler(analyzer, subscriptions, contracts)
	parseHandler := handler.NewParseHandler(extractor, vaultSvc)
	contractHandler := handler.NewContractHandler(contracts, vaultSvc)
	checkoutHandler := handler.NewCheckoutHandler(stripeSvc)
	webhookHandler := handler.NewWebhookHandler(stripeSvc, subscriptions)
	leadHandler := handler.NewLeadHandler(leads, emailSvc)
	teamHandler := handler.NewTeamHandler(teams, subscriptions, emailSvc)
	accountHandler := handler.NewAccountHandler(subscriptions)
	nurtureHandler := handler.NewNurtureHandler(nurtureSvc, emailSvc, cfg.Nurture.Secret)
	serviceRequestHandler := handler.NewServiceRequestHandler(serviceRequests)

	// Background jobs: monthly quota reset and the lead drip sweep
	if cfg.Quota.ResetEnabled || cfg.Nurture.Enabled {
		scheduler := cron.New()
		if cfg.Quota.ResetEnabled {
			_, err := scheduler.AddFunc(cfg.Quota.ResetCron, func() {
				resetCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()
				n, err := subscriptions.ResetAllUsage(resetCtx)
				if err != nil {
					slog.Error("monthly usage reset failed", "error", err)
					return
				}
				slog.Info("monthly usage reset complete", "subscriptions", n)
			})
			if err != nil {
				slog.Error("failed to schedule usage reset", "error", err)
				os.Exit(1)
			}
		}
		if cfg.Nurture.Enabled {
			_, err := scheduler.AddFunc(cfg.Nurture.Cron, func() {
				sweepCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()
				result, err := nurtureSvc.Run(sweepCtx)
				if err != nil {
					slog.Error("nurture sweep failed", "error", err)
					return
				}
				slog.Info("nurture sweep complete",
					"leads", result.LeadsProcessed, "sent", result.EmailsSent)
			})
			if err != nil {
				slog.Error("failed to schedule nurture sweep", "error", err)
				os.Exit(1)
			}
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		// Preview analysis is free; full mode checks auth in the handler
		api.POST("/analyze",
			middleware.RateLimit(limiter, "analyze", ratelimit.Analyze),
			middleware.OptionalAuth(&cfg.Auth),
			analyzeHandler.Analyze)

		api.POST("/parse-document",
			middleware.RateLimit(limiter, "parse-document", ratelimit.ParseDocument),
			middleware.OptionalAuth(&cfg.Auth),
			parseHandler.Parse)

		api.POST("/capture-lead", leadHandler.Capture)
		api.POST("/service-request",
			middleware.OptionalAuth(&cfg.Auth),
			serviceRequestHandler.Create)
		api.GET("/nurture-emails", nurtureHandler.Run)
		api.POST("/stripe/webhook", webhookHandler.HandleStripe)
	}

	protected := api.Group("/")
	protected.Use(middleware.RequireAuth(&cfg.Auth))
	{
		protected.GET("/auth/me", accountHandler.Me)

		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/:id", contractHandler.Get)
		protected.DELETE("/contracts/:id", contractHandler.Delete)

		protected.POST("/create-checkout",
			middleware.RateLimit(limiter, "checkout", ratelimit.Checkout),
			checkoutHandler.Create)

		protected.GET("/team", teamHandler.List)
		protected.POST("/team", teamHandler.Invite)
		protected.DELETE("/team/:memberId", teamHandler.Remove)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 180 * time.Second, // full analysis can take a while
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
