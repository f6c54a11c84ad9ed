package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"

	"github.com/cardvault/cardvault/internal/metrics"
	"github.com/cardvault/cardvault/internal/models"
)

const (
	// PriceStalenessThreshold is how old a cached market price can be before
	// it is fetched again from the live source.
	PriceStalenessThreshold = 24 * time.Hour

	defaultPriceCacheSize = 2048
)

type cachedPrice struct {
	price     float64
	fetchedAt time.Time
}

// MarketPriceResolver enriches entries with a current market value. Lookups
// go LRU -> database cache -> live source; any failure along the way resolves
// to "no price" rather than an error, so one bad lookup can never take down a
// roster or a report.
type MarketPriceResolver struct {
	source PriceSource
	db     *gorm.DB // optional; nil disables the persistent cache
	cache  *lru.Cache[string, cachedPrice]
}

// NewMarketPriceResolver creates a resolver backed by the given live source
// and an optional database cache.
func NewMarketPriceResolver(source PriceSource, db *gorm.DB, cacheSize int) *MarketPriceResolver {
	if cacheSize <= 0 {
		cacheSize = defaultPriceCacheSize
	}

	// lru.New only fails on a non-positive size, which is guarded above.
	cache, err := lru.New[string, cachedPrice](cacheSize)
	if err != nil {
		log.Fatalf("Failed to create price cache: %v", err)
	}

	return &MarketPriceResolver{
		source: source,
		db:     db,
		cache:  cache,
	}
}

func priceKey(entry models.Entry) string {
	return entry.Name + "|" + entry.ID + "|" + entry.Edition + "|" + entry.Grade + "|" + string(entry.Type)
}

// ResolvePrice returns the current market value for an entry and true, or
// (0, false) when no price could be determined. It never returns an error:
// transport failures, bad responses and missing data are logged and treated
// as "no market data".
func (r *MarketPriceResolver) ResolvePrice(ctx context.Context, entry models.Entry) (float64, bool) {
	start := time.Now()
	defer func() {
		metrics.PriceLookupDuration.Observe(time.Since(start).Seconds())
	}()

	key := priceKey(entry)

	if cached, ok := r.cache.Get(key); ok && time.Since(cached.fetchedAt) < PriceStalenessThreshold {
		metrics.PriceLookupsTotal.WithLabelValues("cache").Inc()
		return cached.price, true
	}

	if price, ok := r.lookupStored(ctx, entry); ok {
		r.cache.Add(key, cachedPrice{price: price, fetchedAt: time.Now()})
		metrics.PriceLookupsTotal.WithLabelValues("db").Inc()
		return price, true
	}

	price, err := r.source.FetchPrice(ctx, entry)
	if err != nil {
		log.Printf("Market price lookup failed for entry %s (%s): %v", entry.ID, entry.Name, err)
		metrics.PriceLookupsTotal.WithLabelValues("fallback").Inc()
		return 0, false
	}
	if price < 0 {
		log.Printf("Market price lookup returned negative price for entry %s (%s), ignoring", entry.ID, entry.Name)
		metrics.PriceLookupsTotal.WithLabelValues("fallback").Inc()
		return 0, false
	}

	now := time.Now()
	r.cache.Add(key, cachedPrice{price: price, fetchedAt: now})
	r.storePrice(entry, price, now)
	metrics.PriceLookupsTotal.WithLabelValues("market").Inc()
	return price, true
}

// RefreshPrice bypasses both caches and asks the live source directly,
// persisting the result. Used by the background market data worker.
func (r *MarketPriceResolver) RefreshPrice(ctx context.Context, entry models.Entry) (float64, bool) {
	price, err := r.source.FetchPrice(ctx, entry)
	if err != nil {
		log.Printf("Market price refresh failed for entry %s (%s): %v", entry.ID, entry.Name, err)
		return 0, false
	}
	if price < 0 {
		return 0, false
	}

	now := time.Now()
	r.cache.Add(priceKey(entry), cachedPrice{price: price, fetchedAt: now})
	r.storePrice(entry, price, now)
	return price, true
}

// ResolveAll resolves market prices for every entry concurrently and returns
// one ValuedEntry per input entry, in input order. Entries with no resolvable
// price fall back to their purchase price so a missing price never shows up
// as a zero-value asset. Output length always equals input length, even when
// every lookup fails or ctx is cancelled mid-flight.
func (r *MarketPriceResolver) ResolveAll(ctx context.Context, entries []models.Entry) []models.ValuedEntry {
	start := time.Now()

	valued := make([]models.ValuedEntry, len(entries))

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry models.Entry) {
			defer wg.Done()

			price, ok := r.ResolvePrice(ctx, entry)
			if !ok {
				price = entry.PurchasePrice
			}

			source := "market"
			if !ok {
				source = "fallback"
			}

			// Results are collected positionally so output order never
			// depends on completion order.
			valued[i] = models.ValuedEntry{
				Entry:         entry,
				MarketPrice:   price,
				PriceResolved: ok,
				PriceSource:   source,
			}
		}(i, entry)
	}
	wg.Wait()

	metrics.ResolveBatchDuration.Observe(time.Since(start).Seconds())
	return valued
}

// lookupStored checks the persistent market data cache for a fresh price.
// Entries with an id match on the id or on their full attribute identity;
// id-less lookups match on attributes only, so they can never pick up a row
// stored for a different id-less entry.
func (r *MarketPriceResolver) lookupStored(ctx context.Context, entry models.Entry) (float64, bool) {
	if r.db == nil {
		return 0, false
	}

	query := r.db.WithContext(ctx)
	if entry.ID != "" {
		query = query.Where("entry_id = ? OR (name = ? AND edition = ? AND grade = ? AND type = ?)",
			entry.ID, entry.Name, entry.Edition, entry.Grade, entry.Type)
	} else {
		query = query.Where("name = ? AND edition = ? AND grade = ? AND type = ?",
			entry.Name, entry.Edition, entry.Grade, entry.Type)
	}

	var md models.MarketData
	if err := query.First(&md).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Failed to read cached market data for entry %s: %v", entry.ID, err)
		}
		return 0, false
	}

	if time.Since(md.LastUpdated) >= PriceStalenessThreshold {
		return 0, false
	}
	return md.Price, true
}

// storePrice upserts the fetched price into the persistent cache, keyed on
// the entry id when there is one and on the attribute identity otherwise.
func (r *MarketPriceResolver) storePrice(entry models.Entry, price float64, fetchedAt time.Time) {
	if r.db == nil {
		return
	}

	query := r.db
	if entry.ID != "" {
		query = query.Where("entry_id = ?", entry.ID)
	} else {
		query = query.Where("entry_id = '' AND name = ? AND edition = ? AND grade = ? AND type = ?",
			entry.Name, entry.Edition, entry.Grade, entry.Type)
	}

	md := models.MarketData{
		EntryID: entry.ID,
		Name:    entry.Name,
		Edition: entry.Edition,
		Grade:   entry.Grade,
		Type:    entry.Type,
	}
	err := query.
		Assign(models.MarketData{Price: price, LastUpdated: fetchedAt}).
		FirstOrCreate(&md).Error
	if err != nil {
		log.Printf("Failed to save market data for entry %s: %v", entry.ID, err)
	}
}
