package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/capwatch/capwatch/internal/config"
	"github.com/capwatch/capwatch/internal/db"
	"github.com/capwatch/capwatch/internal/handlers"
	"github.com/capwatch/capwatch/internal/logger"
	"github.com/capwatch/capwatch/internal/repositories"
	"github.com/capwatch/capwatch/internal/services"
)

// @title capwatch API
// @version 1.0
// @description Market-cap currency normalization and comparison engine
// @BasePath /api
func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	zlog, err := logger.New()
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer zlog.Sync()

	cfg := config.Load()

	// Database connection
	database, err := db.Connect(db.NewConfig())
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		zlog.Fatal("failed to migrate schema", zap.Error(err))
	}
	zlog.Info("database connection established")

	// Repositories and services
	quoteRepo := repositories.NewQuoteRepository(database)
	snapshotRepo := repositories.NewSnapshotRepository(database)

	normalizer := services.NewNormalizationService(quoteRepo, snapshotRepo, zlog)
	comparisons := services.NewComparisonService(normalizer, snapshotRepo)
	trends := services.NewTrendService(normalizer, snapshotRepo, zlog)
	benchmark := services.NewBenchmarkService(comparisons)
	peerGroups := services.NewPeerGroupService(comparisons, config.PeerGroups())

	comparisonHandler := handlers.NewComparisonHandler(comparisons, benchmark, peerGroups, cfg.ReferenceCurrency)
	trendHandler := handlers.NewTrendHandler(trends, cfg.ReferenceCurrency)

	// Routes
	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  status,
			"service": "capwatch",
		})
	})

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/comparison", comparisonHandler.HandleComparison).Methods("GET")
	api.HandleFunc("/comparison/rolling", comparisonHandler.HandleRolling).Methods("GET")
	api.HandleFunc("/benchmark", comparisonHandler.HandleBenchmark).Methods("GET")
	api.HandleFunc("/peer-groups", comparisonHandler.HandlePeerGroups).Methods("GET")
	api.HandleFunc("/trends", trendHandler.HandleTrends).Methods("GET")
	api.HandleFunc("/trends/yoy", trendHandler.HandleYoY).Methods("GET")
	api.HandleFunc("/trends/qoq", trendHandler.HandleQoQ).Methods("GET")

	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// CORS middleware
	corsHandler := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	zlog.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, corsHandler(router)); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
