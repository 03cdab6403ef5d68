package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruralpay/ledger/docs"
	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/config"
	"github.com/ruralpay/ledger/internal/database"
	"github.com/ruralpay/ledger/internal/handlers"
	"github.com/ruralpay/ledger/internal/metrics"
	"github.com/ruralpay/ledger/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Personal Banking Ledger API
// @version 1.0
// @description Accounts, two-phase transfers, loans and fixed deposits
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	v := viper.GetViper()
	cfg := config.Load(v)

	docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port

	ctx := context.Background()

	// Persistence gateway
	var gateway services.SnapshotStore
	switch cfg.Storage.Driver {
	case "postgres":
		dbConfig := database.GetConfig(v)
		db, err := database.InitDB(ctx, dbConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		gateway = postgresGateway(ctx, db, dbConfig.RetainSnapshots)
	default:
		gateway = database.NewFileSnapshotStore(cfg.Storage.FilePath)
		log.Printf("Using file storage at %s", cfg.Storage.FilePath)
	}

	// Sessions
	var sessions services.SessionStore = services.NewMemorySessionStore()
	if cfg.Redis.Enabled {
		if redisClient := database.InitRedis(ctx, cfg.Redis); redisClient != nil {
			defer redisClient.Close()
			sessions = services.NewRedisSessionStore(redisClient)
		}
	}

	collector := metrics.NewCollector()
	bank := services.NewBank(*cfg, services.BankOptions{
		Gateway:  gateway,
		Sessions: sessions,
		Audit:    audit.NewLogger(),
		Metrics:  collector,
	})
	if err := bank.Restore(ctx); err != nil {
		log.Fatalf("Failed to load ledger: %v", err)
	}

	r := handlers.NewRouter(bank, collector)

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Start server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}

func postgresGateway(ctx context.Context, db *sql.DB, retain int) services.SnapshotStore {
	store := database.NewPostgresSnapshotStore(db, retain)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Using postgres snapshot storage")
	return store
}
