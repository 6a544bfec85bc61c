package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"power_ledger/internal/advice"
	"power_ledger/internal/config"
	"power_ledger/internal/handler"
	"power_ledger/internal/middleware"
	"power_ledger/internal/repository"
	"power_ledger/internal/service"
	"power_ledger/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("Failed to load DB config: %v", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		log.Fatalf("JWT_SECRET_KEY not set in environment")
	}
	jwtExpHoursStr := os.Getenv("JWT_EXPIRATION_HOURS")
	jwtExpHours, err := strconv.ParseInt(jwtExpHoursStr, 10, 64)
	if err != nil {
		log.Printf("Invalid JWT_EXPIRATION_HOURS, defaulting to 24: %v", err)
		jwtExpHours = 24
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080" // Default port
	}

	referralPercent := 15
	if s := os.Getenv("REFERRAL_COMMISSION_PERCENT"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil || p < 0 || p > 100 {
			log.Fatalf("Invalid REFERRAL_COMMISSION_PERCENT: %q", s)
		}
		referralPercent = p
	}

	sweepInterval := time.Hour
	if s := os.Getenv("ACCRUAL_SWEEP_INTERVAL_MINUTES"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m <= 0 {
			log.Fatalf("Invalid ACCRUAL_SWEEP_INTERVAL_MINUTES: %q", s)
		}
		sweepInterval = time.Duration(m) * time.Minute
	}

	adviceURL := os.Getenv("ADVICE_SERVICE_URL") // optional, empty means canned responses

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	// --- Auto Migration ---
	if err := config.AutoMigrate(dbPool); err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(jwtSecret, jwtExpHours)
	clock := utils.NewRealClock()

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	investmentRepo := repository.NewInvestmentRepository(dbPool)
	transactionRepo := repository.NewTransactionRepository(dbPool)
	giftRepo := repository.NewGiftCodeRepository(dbPool)
	settingsRepo := repository.NewSettingsRepository(dbPool)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, jwtUtil)
	investmentService := service.NewInvestmentService(dbPool, userRepo, productRepo, investmentRepo, transactionRepo, clock, referralPercent)
	accrualService := service.NewAccrualService(dbPool, userRepo, investmentRepo, transactionRepo, clock, referralPercent)
	walletService := service.NewWalletService(dbPool, userRepo, transactionRepo, settingsRepo, clock)
	giftService := service.NewGiftService(dbPool, userRepo, giftRepo, transactionRepo, clock)
	catalogService := service.NewCatalogService(productRepo, userRepo, settingsRepo)
	adviceClient := advice.NewClient(adviceURL)

	// --- Initialize Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	marketHandler := handler.NewMarketHandler(investmentService, accrualService, adviceClient)
	walletHandler := handler.NewWalletHandler(walletService, accrualService, giftService, adviceClient)
	adminHandler := handler.NewAdminHandler(walletService, catalogService, giftService)

	// --- Setup Gin Router ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default()

	// Simple CORS middleware (allow all for development)
	// For production, configure specific origins, methods, headers
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
	router.Use(middleware.MetricsMiddleware())

	// --- Initialize Middlewares ---
	jwtAuthMW := middleware.JWTAuthMiddleware(jwtUtil)
	adminRoleMW := middleware.AdminMiddleware()

	// --- Register Routes ---
	apiGroup := router.Group("/api/v1") // Base path for API
	authHandler.RegisterAuthRoutes(apiGroup)
	marketHandler.RegisterMarketRoutes(apiGroup, jwtAuthMW)
	walletHandler.RegisterWalletRoutes(apiGroup, jwtAuthMW)
	adminHandler.RegisterAdminRoutes(apiGroup, jwtAuthMW, adminRoleMW)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		// Check DB connection
		if err := dbPool.Ping(context.Background()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})

	// --- Background Income Sweeper ---
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		log.Printf("Income sweeper running every %s", sweepInterval)
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				credited, err := accrualService.Sweep(sweepCtx)
				if err != nil {
					log.Printf("Income sweep failed: %v", err)
					continue
				}
				if credited > 0 {
					log.Printf("Income sweep credited %d investment(s)", credited)
				}
			}
		}
	}()

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + serverPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
