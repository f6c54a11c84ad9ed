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

	"github.com/cardvault/cardvault/internal/api"
	"github.com/cardvault/cardvault/internal/database"
	"github.com/cardvault/cardvault/internal/services"
	"github.com/cardvault/cardvault/internal/store"
)

func main() {
	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./cardvault.db"
	}

	// Initialize database
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	db := database.GetDB()

	// Collection store
	entryStore := store.NewGormStore(db)

	// Live market price source, rate limited to stay polite
	ratePerMin := 20
	if rateStr := os.Getenv("EBAY_RATE_PER_MIN"); rateStr != "" {
		if rate, err := strconv.Atoi(rateStr); err == nil && rate > 0 {
			ratePerMin = rate
		}
	}
	priceSource := services.NewEbayPriceSource(ratePerMin)

	// Price resolver with in-memory LRU and persistent cache
	cacheSize := 0
	if sizeStr := os.Getenv("PRICE_CACHE_SIZE"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil {
			cacheSize = size
		}
	}
	resolver := services.NewMarketPriceResolver(priceSource, db, cacheSize)

	// Core services
	mutator := services.NewQuantityMutator(entryStore)
	builder := services.NewReportBuilder(entryStore, resolver)
	cartService := services.NewCartService(db)
	imageStorageService := services.NewImageStorageService(os.Getenv("ENTRY_IMAGES_DIR"))
	snapshotService := services.NewSnapshotService(db)
	marketWorker := services.NewMarketDataWorker(resolver, db)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start market data worker in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in market data worker: %v - restarting in 30 seconds", r)
					}
				}()
				marketWorker.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return // Graceful shutdown
			case <-time.After(30 * time.Second):
				log.Println("Market data worker restarting after panic recovery...")
			}
		}
	}()

	// Start snapshot service in background
	go snapshotService.Start(ctx)

	// Setup router
	router := api.SetupRouter(entryStore, db, mutator, resolver, builder, marketWorker, snapshotService, cartService, imageStorageService)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the background workers
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
