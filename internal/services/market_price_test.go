package services

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cardvault/cardvault/internal/models"
)

// fakePriceSource returns scripted prices keyed by entry name.
type fakePriceSource struct {
	prices map[string]float64
	err    error
	calls  int64
}

func (f *fakePriceSource) FetchPrice(ctx context.Context, entry models.Entry) (float64, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return 0, f.err
	}
	price, ok := f.prices[entry.Name]
	if !ok {
		return 0, errors.New("no listings found")
	}
	return price, nil
}

func TestResolvePriceFromSource(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{"Pikachu": 12.5}}
	r := NewMarketPriceResolver(source, nil, 10)

	price, ok := r.ResolvePrice(context.Background(), models.Entry{ID: "e1", Name: "Pikachu"})
	if !ok {
		t.Fatal("Expected price to resolve")
	}
	if price != 12.5 {
		t.Errorf("Expected price 12.5, got %v", price)
	}
}

func TestResolvePriceFailureReturnsFalse(t *testing.T) {
	source := &fakePriceSource{err: errors.New("network down")}
	r := NewMarketPriceResolver(source, nil, 10)

	price, ok := r.ResolvePrice(context.Background(), models.Entry{ID: "e1", Name: "Pikachu"})
	if ok {
		t.Error("Expected resolution to fail")
	}
	if price != 0 {
		t.Errorf("Expected zero price on failure, got %v", price)
	}
}

func TestResolvePriceUsesCache(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{"Pikachu": 12.5}}
	r := NewMarketPriceResolver(source, nil, 10)

	entry := models.Entry{ID: "e1", Name: "Pikachu"}
	r.ResolvePrice(context.Background(), entry)
	r.ResolvePrice(context.Background(), entry)

	if calls := atomic.LoadInt64(&source.calls); calls != 1 {
		t.Errorf("Expected a single source fetch, got %d", calls)
	}
}

func TestResolvePriceRejectsNegative(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{"Pikachu": -3}}
	r := NewMarketPriceResolver(source, nil, 10)

	if _, ok := r.ResolvePrice(context.Background(), models.Entry{ID: "e1", Name: "Pikachu"}); ok {
		t.Error("Expected negative price to be rejected")
	}
}

func TestResolveAllPreservesOrderAndLength(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{}}
	for i := 0; i < 50; i++ {
		source.prices["card-"+strconv.Itoa(i)] = float64(i)
	}
	r := NewMarketPriceResolver(source, nil, 100)

	entries := make([]models.Entry, 50)
	for i := range entries {
		entries[i] = models.Entry{ID: strconv.Itoa(i), Name: "card-" + strconv.Itoa(i)}
	}

	valued := r.ResolveAll(context.Background(), entries)

	if len(valued) != len(entries) {
		t.Fatalf("Expected %d valued entries, got %d", len(entries), len(valued))
	}
	for i, v := range valued {
		if v.ID != entries[i].ID {
			t.Errorf("Entry %d: order not preserved, got id %s", i, v.ID)
		}
		if v.MarketPrice != float64(i) {
			t.Errorf("Entry %d: expected price %d, got %v", i, i, v.MarketPrice)
		}
		if !v.PriceResolved || v.PriceSource != "market" {
			t.Errorf("Entry %d: expected resolved market price, got %+v", i, v)
		}
	}
}

func TestResolveAllFallsBackToPurchasePrice(t *testing.T) {
	source := &fakePriceSource{err: errors.New("market unreachable")}
	r := NewMarketPriceResolver(source, nil, 10)

	entries := []models.Entry{
		{ID: "e1", Name: "Pikachu", PurchasePrice: 4.2},
		{ID: "e2", Name: "Charizard", PurchasePrice: 99},
	}

	valued := r.ResolveAll(context.Background(), entries)

	if len(valued) != 2 {
		t.Fatalf("Expected 2 valued entries, got %d", len(valued))
	}
	for i, v := range valued {
		if v.MarketPrice != entries[i].PurchasePrice {
			t.Errorf("Entry %s: expected fallback to purchase price %v, got %v", v.ID, entries[i].PurchasePrice, v.MarketPrice)
		}
		if v.PriceResolved {
			t.Errorf("Entry %s: expected PriceResolved false on fallback", v.ID)
		}
		if v.PriceSource != "fallback" {
			t.Errorf("Entry %s: expected source fallback, got %s", v.ID, v.PriceSource)
		}
	}
}

func TestResolveAllPartialFailures(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{"Pikachu": 10}}
	r := NewMarketPriceResolver(source, nil, 10)

	entries := []models.Entry{
		{ID: "e1", Name: "Pikachu", PurchasePrice: 5},
		{ID: "e2", Name: "Unknown", PurchasePrice: 7},
	}

	valued := r.ResolveAll(context.Background(), entries)

	if valued[0].MarketPrice != 10 || !valued[0].PriceResolved {
		t.Errorf("Expected e1 resolved at 10, got %+v", valued[0])
	}
	if valued[1].MarketPrice != 7 || valued[1].PriceResolved {
		t.Errorf("Expected e2 fallback at 7, got %+v", valued[1])
	}
}

func TestResolveAllEmptyRoster(t *testing.T) {
	r := NewMarketPriceResolver(&fakePriceSource{}, nil, 10)

	valued := r.ResolveAll(context.Background(), nil)
	if valued == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(valued) != 0 {
		t.Errorf("Expected 0 valued entries, got %d", len(valued))
	}
}

func TestStoredPricesKeyedByIdentityWithoutID(t *testing.T) {
	db := newTestDB(t)

	source := &fakePriceSource{prices: map[string]float64{"Pikachu": 10}}
	r := NewMarketPriceResolver(source, db, 10)

	pikachu := models.Entry{Name: "Pikachu", Grade: models.GradeUngraded, Type: models.EntryTypeCard}
	if price, ok := r.ResolvePrice(context.Background(), pikachu); !ok || price != 10 {
		t.Fatalf("Expected Pikachu at 10, got (%v, %v)", price, ok)
	}

	// Fresh LRU, same database: an id-less lookup for a different card must
	// never be served the row stored for another id-less card.
	source2 := &fakePriceSource{prices: map[string]float64{"Charizard": 500}}
	r2 := NewMarketPriceResolver(source2, db, 10)

	charizard := models.Entry{Name: "Charizard", Grade: models.GradeUngraded, Type: models.EntryTypeCard}
	if price, ok := r2.ResolvePrice(context.Background(), charizard); !ok || price != 500 {
		t.Errorf("Expected Charizard at 500 from the live source, got (%v, %v)", price, ok)
	}

	// The matching identity still hits the stored row: source2 has no
	// Pikachu price, so a live fetch would fail.
	if price, ok := r2.ResolvePrice(context.Background(), pikachu); !ok || price != 10 {
		t.Errorf("Expected Pikachu at 10 from the stored cache, got (%v, %v)", price, ok)
	}

	// Both id-less rows coexist instead of sharing one slot.
	var count int64
	db.Model(&models.MarketData{}).Count(&count)
	if count != 2 {
		t.Errorf("Expected 2 market data rows, got %d", count)
	}
}

func TestStoredPriceUpsertByEntryID(t *testing.T) {
	db := newTestDB(t)
	r := NewMarketPriceResolver(&fakePriceSource{}, db, 10)

	entry := models.Entry{ID: "e1", Name: "Pikachu", Type: models.EntryTypeCard}
	r.storePrice(entry, 10, time.Now())
	r.storePrice(entry, 12, time.Now())

	var rows []models.MarketData
	db.Find(&rows)
	if len(rows) != 1 {
		t.Fatalf("Expected a single row for the entry, got %d", len(rows))
	}
	if rows[0].Price != 12 {
		t.Errorf("Expected updated price 12, got %v", rows[0].Price)
	}
}

func TestResolveAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakePriceSource{err: context.Canceled}
	r := NewMarketPriceResolver(source, nil, 10)

	entries := []models.Entry{
		{ID: "e1", Name: "Pikachu", PurchasePrice: 3},
		{ID: "e2", Name: "Charizard", PurchasePrice: 4},
	}

	// Cancellation must still yield one fallback result per input entry.
	valued := r.ResolveAll(ctx, entries)
	if len(valued) != len(entries) {
		t.Fatalf("Expected %d entries after cancellation, got %d", len(entries), len(valued))
	}
	for i, v := range valued {
		if v.MarketPrice != entries[i].PurchasePrice {
			t.Errorf("Entry %s: expected purchase-price fallback, got %v", v.ID, v.MarketPrice)
		}
	}
}
