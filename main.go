package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/centavo/backend/src/config"
	"github.com/username/centavo/backend/src/database"
	"github.com/username/centavo/backend/src/handlers"
	"github.com/username/centavo/backend/src/logger"
	"github.com/username/centavo/backend/src/model"
	"github.com/username/centavo/backend/src/providers"
	"github.com/username/centavo/backend/src/security"
	"github.com/username/centavo/backend/src/services"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == config.Cfg.FrontendBaseURL {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Centavo backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid, must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath, config.Cfg.MigrationsDir)

	rdb, err := services.NewRedisClient(config.Cfg.RedisAddr, config.Cfg.RedisPassword, config.Cfg.RedisDB)
	if err != nil {
		// Caching is a performance layer; the server runs without it.
		logger.L.Warn("Redis unavailable, analytics caching disabled", "addr", config.Cfg.RedisAddr, "error", err)
		rdb = nil
	}

	registry, err := providers.NewRegistry(config.Cfg.DefaultProvider,
		providers.NewPlaidProvider(config.Cfg.PlaidBaseURL, config.Cfg.PlaidClientID, config.Cfg.PlaidSecret),
		providers.NewTellerProvider(config.Cfg.TellerBaseURL),
	)
	if err != nil {
		logger.L.Error("Provider registry configuration invalid", "error", err)
		os.Exit(1)
	}

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)

	cacheCoordinator := services.NewCacheCoordinator(rdb, func(token string) (time.Duration, error) {
		return model.SessionRemainingTTL(database.DB, token)
	}, config.Cfg.DefaultCacheTTL)

	store := services.NewSQLStore(database.DB, config.Cfg.CredentialSealKey)
	syncService := services.NewSyncService(registry, store, cacheCoordinator)
	ledgerService := services.NewLedgerService(store, cacheCoordinator, config.Cfg.DefaultCurrency)

	authHandler := handlers.NewAuthHandler(database.DB, authService, cacheCoordinator)
	connectionHandler := handlers.NewConnectionHandler(database.DB, syncService, registry)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Centavo Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", authHandler.RegisterUserHandler)
			r.Post("/auth/login", authHandler.LoginHandler)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authHandler.AuthMiddleware)

			r.Post("/auth/logout", authHandler.LogoutHandler)
			r.Post("/user/change-password", authHandler.ChangePasswordHandler)

			r.Get("/providers", connectionHandler.ListProvidersHandler)
			r.Post("/connections/link-token", connectionHandler.CreateLinkTokenHandler)
			r.Post("/connections/exchange", connectionHandler.ExchangePublicTokenHandler)
			r.Get("/connections", connectionHandler.ListConnectionsHandler)
			r.Post("/connections/{connectionID}/sync", connectionHandler.SyncConnectionHandler)
			r.Delete("/connections/{connectionID}", connectionHandler.DisconnectConnectionHandler)

			r.Get("/networth/history", ledgerHandler.GetNetWorthHistoryHandler)
			r.Get("/overview", ledgerHandler.GetOverviewHandler)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
