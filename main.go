package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/duitku/backend/src/config"
	"github.com/username/duitku/backend/src/database"
	"github.com/username/duitku/backend/src/handlers"
	"github.com/username/duitku/backend/src/legacyimport"
	"github.com/username/duitku/backend/src/logger"
	"github.com/username/duitku/backend/src/security"
	"github.com/username/duitku/backend/src/services"
	"github.com/username/duitku/backend/src/storage"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == config.Cfg.FrontendOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == http.MethodOptions {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Duitku backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	userHandler := handlers.NewUserHandler(authService, emailService)

	store := storage.NewSQLStore(database.DB)
	importer := legacyimport.NewImporter(store, logger.L)
	summaryService := services.NewSummaryService(reportCache)
	importService := services.NewImportService(importer, summaryService, config.Cfg.MaxImportBatchSize)

	importHandler := handlers.NewImportHandler(importService)
	txHandler := handlers.NewTransactionHandler(summaryService)
	categoryHandler := handlers.NewCategoryHandler()
	savingsHandler := handlers.NewSavingsHandler(summaryService)
	kasbonHandler := handlers.NewKasbonHandler(summaryService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public GET routes (no CSRF needed for these GETs)
	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)
	// More specific than the /api/auth/ CSRF group; the signup form calls
	// this before it holds a CSRF token.
	apiRouter.HandleFunc("POST /api/auth/check-email", userHandler.CheckEmailHandler)

	// Auth actions router - POST routes generally need CSRF
	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.Handle("POST /logout", userHandler.AuthMiddleware(http.HandlerFunc(userHandler.LogoutUserHandler)))
	authActionRouter.HandleFunc("POST /request-password-reset", userHandler.RequestPasswordResetHandler)
	authActionRouter.HandleFunc("POST /reset-password", userHandler.ResetPasswordHandler)

	// Apply CSRF to the entire authActionRouter group
	csrfProtection := handlers.CSRFMiddleware()
	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", csrfProtection(authActionRouter)))

	// CSRF and Auth middleware for protected API routes
	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(userHandler.AuthMiddleware(handler))
	}

	apiRouter.Handle("POST /api/import/legacy", applyCsrfAndAuth(importHandler.HandleLegacyImport))

	apiRouter.Handle("GET /api/transactions", applyCsrfAndAuth(txHandler.HandleGetTransactions))
	apiRouter.Handle("POST /api/transactions", applyCsrfAndAuth(txHandler.HandleCreateTransaction))
	apiRouter.Handle("PUT /api/transactions/{id}", applyCsrfAndAuth(txHandler.HandleUpdateTransaction))
	apiRouter.Handle("DELETE /api/transactions/{id}", applyCsrfAndAuth(txHandler.HandleDeleteTransaction))

	apiRouter.Handle("GET /api/categories", applyCsrfAndAuth(categoryHandler.HandleGetCategories))
	apiRouter.Handle("POST /api/categories", applyCsrfAndAuth(categoryHandler.HandleCreateCategory))

	apiRouter.Handle("GET /api/savings/goals", applyCsrfAndAuth(savingsHandler.HandleGetGoals))
	apiRouter.Handle("POST /api/savings/goals", applyCsrfAndAuth(savingsHandler.HandleCreateGoal))
	apiRouter.Handle("DELETE /api/savings/goals/{id}", applyCsrfAndAuth(savingsHandler.HandleDeleteGoal))
	apiRouter.Handle("GET /api/savings/goals/{id}/transactions", applyCsrfAndAuth(savingsHandler.HandleGetGoalTransactions))
	apiRouter.Handle("POST /api/savings/goals/{id}/transactions", applyCsrfAndAuth(savingsHandler.HandleCreateGoalTransaction))

	apiRouter.Handle("GET /api/kasbon", applyCsrfAndAuth(kasbonHandler.HandleGetKasbon))
	apiRouter.Handle("POST /api/kasbon", applyCsrfAndAuth(kasbonHandler.HandleCreateKasbon))
	apiRouter.Handle("PUT /api/kasbon/{id}", applyCsrfAndAuth(kasbonHandler.HandleSettleKasbon))
	apiRouter.Handle("DELETE /api/kasbon/{id}", applyCsrfAndAuth(kasbonHandler.HandleDeleteKasbon))

	apiRouter.Handle("GET /api/summary", applyCsrfAndAuth(summaryHandler.HandleGetSummary))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Duitku Backend is running"})
		} else if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
