package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/cardvault/cardvault/internal/metrics"
	"github.com/cardvault/cardvault/internal/models"
)

const (
	// defaultRefreshBatchSize is the number of entries refreshed per batch.
	// Kept small because every refresh is a live listing search.
	defaultRefreshBatchSize = 25
)

// MarketDataWorker keeps the persistent market data cache warm: on an
// interval it finds entries whose cached price is missing or stale and
// refreshes them from the live source, so roster views and reports mostly
// hit the cache.
type MarketDataWorker struct {
	resolver       *MarketPriceResolver
	db             *gorm.DB
	updateInterval time.Duration
	batchSize      int

	mu                  sync.RWMutex
	entriesRefreshedToday int
	lastUpdateTime      time.Time
	lastStatsDay        time.Time
}

// MarketDataStatus reports worker progress for the prices status endpoint.
type MarketDataStatus struct {
	LastUpdateTime        time.Time `json:"last_update_time"`
	NextUpdateTime        time.Time `json:"next_update_time"`
	EntriesRefreshedToday int       `json:"entries_refreshed_today"`
	BatchSize             int       `json:"batch_size"`
}

func NewMarketDataWorker(resolver *MarketPriceResolver, db *gorm.DB) *MarketDataWorker {
	return &MarketDataWorker{
		resolver:       resolver,
		db:             db,
		updateInterval: 15 * time.Minute,
		batchSize:      defaultRefreshBatchSize,
	}
}

// Start begins the background refresh loop. It runs one batch immediately,
// then on every tick until ctx is cancelled.
func (w *MarketDataWorker) Start(ctx context.Context) {
	log.Printf("Market data worker started: will refresh up to %d entries every %v", w.batchSize, w.updateInterval)

	if refreshed, err := w.RefreshBatch(ctx); err != nil {
		log.Printf("Market data worker: initial batch failed: %v", err)
	} else {
		log.Printf("Market data worker: initial batch refreshed %d entries", refreshed)
	}

	ticker := time.NewTicker(w.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Market data worker stopping...")
			return
		case <-ticker.C:
			if refreshed, err := w.RefreshBatch(ctx); err != nil {
				log.Printf("Market data worker: batch failed: %v", err)
			} else if refreshed > 0 {
				log.Printf("Market data worker: batch refreshed %d entries", refreshed)
			}
		}
	}
}

// RefreshBatch refreshes market data for one batch of entries, preferring
// entries with no cached price, then the stalest ones.
func (w *MarketDataWorker) RefreshBatch(ctx context.Context) (int, error) {
	w.resetDailyStatsIfNeeded()

	start := time.Now()
	staleBefore := start.Add(-PriceStalenessThreshold)

	var entries []models.Entry
	err := w.db.WithContext(ctx).
		Table("entries").
		Select("entries.*").
		Joins("LEFT JOIN market_data md ON md.entry_id = entries.id").
		Where("md.id IS NULL OR md.last_updated < ?", staleBefore).
		Order("md.last_updated ASC").
		Limit(w.batchSize).
		Find(&entries).Error
	if err != nil {
		return 0, err
	}

	if len(entries) == 0 {
		return 0, nil
	}

	refreshed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if _, ok := w.resolver.RefreshPrice(ctx, entry); ok {
			refreshed++
		}
	}

	w.mu.Lock()
	w.entriesRefreshedToday += refreshed
	w.lastUpdateTime = time.Now()
	refreshedToday := w.entriesRefreshedToday
	w.mu.Unlock()

	metrics.MarketDataRefreshTotal.Add(float64(refreshed))
	metrics.MarketDataRefreshedToday.Set(float64(refreshedToday))
	metrics.MarketDataBatchDuration.Observe(time.Since(start).Seconds())
	metrics.UpdateCollectionMetrics(w.db)

	return refreshed, nil
}

// GetStatus returns the current worker status.
func (w *MarketDataWorker) GetStatus() MarketDataStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return MarketDataStatus{
		LastUpdateTime:        w.lastUpdateTime,
		NextUpdateTime:        w.lastUpdateTime.Add(w.updateInterval),
		EntriesRefreshedToday: w.entriesRefreshedToday,
		BatchSize:             w.batchSize,
	}
}

// resetDailyStatsIfNeeded resets entriesRefreshedToday at midnight.
func (w *MarketDataWorker) resetDailyStatsIfNeeded() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if w.lastStatsDay.Before(today) {
		if !w.lastStatsDay.IsZero() {
			log.Printf("Market data worker: daily stats reset (previous day: %d entries refreshed)", w.entriesRefreshedToday)
		}
		w.entriesRefreshedToday = 0
		w.lastStatsDay = today
	}
}
