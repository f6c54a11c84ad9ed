package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/cardvault/cardvault/internal/api/handlers"
	"github.com/cardvault/cardvault/internal/metrics"
	"github.com/cardvault/cardvault/internal/services"
	"github.com/cardvault/cardvault/internal/store"
)

func SetupRouter(
	entryStore store.Store,
	db *gorm.DB,
	mutator *services.QuantityMutator,
	resolver *services.MarketPriceResolver,
	builder *services.ReportBuilder,
	worker *services.MarketDataWorker,
	snapshotService *services.SnapshotService,
	cartService *services.CartService,
	imageStorageService *services.ImageStorageService,
) *gin.Engine {
	router := gin.Default()

	// CORS configuration - allow origins from environment or use defaults
	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = false
	router.Use(cors.New(config))
	router.Use(requestMetrics())

	// Initialize handlers
	collectionHandler := handlers.NewCollectionHandler(entryStore, mutator, resolver, imageStorageService)
	reportHandler := handlers.NewReportHandler(builder, snapshotService)
	priceHandler := handlers.NewPriceHandler(resolver, worker)
	cartHandler := handlers.NewCartHandler(cartService)
	productHandler := handlers.NewProductHandler(db)

	// Serve uploaded entry images
	if imageStorageService != nil {
		router.Static("/images/entries", imageStorageService.GetStorageDir())
	}

	// API routes
	api := router.Group("/api")
	{
		// Collection routes
		collections := api.Group("/users/:userId/collections")
		{
			collections.GET("", collectionHandler.GetCollections)
			collections.POST("", collectionHandler.CreateCollection)
			collections.DELETE("/:collectionName", collectionHandler.DeleteCollection)
			collections.DELETE("/:collectionName/entries/:id", collectionHandler.RemoveEntry)
		}

		// Roster and entry routes
		users := api.Group("/users/:userId")
		{
			users.GET("/roster", collectionHandler.GetRoster)
			users.POST("/entries", collectionHandler.AddEntry)
			users.POST("/entries/:id/increment", collectionHandler.IncrementEntry)
			users.POST("/entries/:id/decrement", collectionHandler.DecrementEntry)
			users.PUT("/entries/:id/quantity", collectionHandler.SetQuantity)
			users.GET("/report", reportHandler.GetReport)
			users.GET("/value-history", reportHandler.GetValueHistory)
		}

		// Market price routes
		prices := api.Group("/prices")
		{
			prices.GET("/market", priceHandler.GetMarketPrice)
			prices.GET("/status", priceHandler.GetPriceStatus)
		}

		// Snapshot admin route
		api.POST("/snapshots", reportHandler.ForceSnapshot)

		// Storefront routes
		products := api.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/:id", productHandler.GetProduct)
		}
		cart := api.Group("/users/:userId/cart")
		{
			cart.GET("", cartHandler.GetCart)
			cart.POST("", cartHandler.AddToCart)
			cart.PUT("/:itemId", cartHandler.UpdateCartItem)
			cart.DELETE("/:itemId", cartHandler.RemoveFromCart)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// requestMetrics records request counts and latency per route.
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
