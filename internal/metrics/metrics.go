// Package metrics provides Prometheus metrics for the CardVault backend.
// Scrape these at /metrics for dashboards and alerting.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardvault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardvault_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Market Price Metrics
	PriceLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardvault_price_lookups_total",
			Help: "Market price lookups by where the price came from",
		},
		[]string{"source"}, // "cache", "db", "market", "fallback"
	)

	PriceLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardvault_price_lookup_duration_seconds",
			Help:    "Time taken to resolve a single market price",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
	)

	ResolveBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardvault_price_resolve_batch_duration_seconds",
			Help:    "Time taken to resolve prices for a full roster",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// Market Data Worker Metrics
	MarketDataRefreshTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardvault_market_data_refresh_total",
			Help: "Total number of market data rows refreshed",
		},
	)

	MarketDataRefreshedToday = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardvault_market_data_refreshed_today",
			Help: "Market data rows refreshed today (resets at midnight)",
		},
	)

	MarketDataBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardvault_market_data_batch_duration_seconds",
			Help:    "Time taken to process a market data refresh batch",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// Report Metrics
	ReportsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardvault_reports_generated_total",
			Help: "Total number of collection reports generated",
		},
	)

	ReportBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardvault_report_build_duration_seconds",
			Help:    "Time taken to build a full collection report",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Collection Metrics
	CollectionEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardvault_collection_entries_total",
			Help: "Total number of entries across all collections",
		},
	)

	CollectionEntriesByType = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cardvault_collection_entries_by_type",
			Help: "Number of entries in collections by type",
		},
		[]string{"type"},
	)

	CollectionValueUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardvault_collection_value_usd",
			Help: "Total estimated market value of all collections in USD",
		},
	)

	// Cart Metrics
	CartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardvault_cart_mutations_total",
			Help: "Cart mutations by operation",
		},
		[]string{"operation"}, // "add", "update", "remove"
	)
)

// UpdateCollectionMetrics refreshes the collection gauges from the database,
// valuing each entry at its cached market price with a purchase-price
// fallback.
func UpdateCollectionMetrics(db *gorm.DB) {
	if db == nil {
		return
	}

	type typeStats struct {
		Type       string
		Count      int
		TotalValue float64
	}

	var results []typeStats
	err := db.Table("entries").
		Select(`
			entries.type,
			SUM(entries.quantity) as count,
			SUM(COALESCE(md.price, entries.purchase_price) * entries.quantity) as total_value
		`).
		Joins("LEFT JOIN market_data md ON md.entry_id = entries.id").
		Group("entries.type").
		Scan(&results).Error
	if err != nil {
		log.Printf("Failed to update collection metrics: %v", err)
		return
	}

	total := 0
	totalValue := 0.0
	for _, r := range results {
		CollectionEntriesByType.WithLabelValues(r.Type).Set(float64(r.Count))
		total += r.Count
		totalValue += r.TotalValue
	}

	CollectionEntriesTotal.Set(float64(total))
	CollectionValueUSD.Set(totalValue)
}
