package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/Dan9191/budget-tracker/internal/config"
	"github.com/Dan9191/budget-tracker/internal/handler"
	"github.com/Dan9191/budget-tracker/internal/integrations/cbr"
	"github.com/Dan9191/budget-tracker/internal/middleware"
	"github.com/Dan9191/budget-tracker/internal/repository"
	"github.com/Dan9191/budget-tracker/internal/service"
	"github.com/Dan9191/budget-tracker/internal/utils/email"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	if err := repository.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	var mailer service.Mailer
	if cfg.SMTPEnabled() {
		mailer = email.NewSender(cfg, logger)
	}
	svc := service.NewService(repo, logger, cfg, mailer)
	h := handler.NewHandler(svc, logger)
	cbrClient := cbr.NewCBRClient(cfg, logger)

	// Refresh the cached key rate daily
	c := cron.New()
	if _, err := c.AddFunc("@daily", func() {
		if _, err := cbrClient.RefreshRate(); err != nil {
			logger.Warnf("Key rate refresh failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule key rate refresh: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Budget Tracker API is running...")
	}).Methods("GET")
	// Public routes
	r.HandleFunc("/api/auth/register", h.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/api/transactions").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg, logger))
	authRouter.HandleFunc("", h.AddTransaction).Methods("POST")
	authRouter.HandleFunc("", h.GetTransactions).Methods("GET")
	authRouter.HandleFunc("/monthly-stats", h.MonthlyStats).Methods("GET")
	authRouter.HandleFunc("/yearly-stats", h.YearlyStats).Methods("GET")
	authRouter.HandleFunc("/category-trends-monthly", h.CategoryTrendsMonthly).Methods("GET")
	authRouter.HandleFunc("/category-trends-yearly", h.CategoryTrendsYearly).Methods("GET")
	authRouter.HandleFunc("/{id}", h.UpdateTransaction).Methods("PUT")
	authRouter.HandleFunc("/{id}", h.DeleteTransaction).Methods("DELETE")
	// CBR key rate endpoint
	r.HandleFunc("/api/rates/key-rate", func(w http.ResponseWriter, r *http.Request) {
		rate, err := cbrClient.GetKeyRate()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get key rate: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"key_rate": rate})
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
