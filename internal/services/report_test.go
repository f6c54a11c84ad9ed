package services

import (
	"context"
	"errors"
	"testing"

	"github.com/cardvault/cardvault/internal/models"
)

func TestBuildReport(t *testing.T) {
	fs := &fakeStore{collections: []models.Collection{
		{
			CollectionName: "Binder",
			Cards: []models.Entry{
				{ID: "e1", Name: "Pikachu", Edition: "Jungle", Grade: "10", Quantity: 2, PurchasePrice: 5},
				{ID: "e2", Name: "Charizard", Edition: "Base Set", Grade: models.GradeUngraded, Quantity: 1, PurchasePrice: 100},
			},
			Items: []models.Entry{
				{ID: "e3", Name: "Booster Box", Quantity: 1, PurchasePrice: 80},
			},
		},
	}}
	source := &fakePriceSource{prices: map[string]float64{
		"Pikachu":   10, // profit (10-5)*2 = 10
		"Charizard": 90, // profit -10, excluded from top profit
		// Booster Box unresolved: falls back to 80, zero profit
	}}
	b := NewReportBuilder(fs, NewMarketPriceResolver(source, nil, 10))

	report, err := b.BuildReport(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.EntryCount != 3 {
		t.Errorf("Expected 3 entries, got %d", report.EntryCount)
	}
	if report.TotalCost != 190 { // 5*2 + 100 + 80
		t.Errorf("Expected total cost 190, got %v", report.TotalCost)
	}
	if report.TotalMarketValue != 190 { // 10*2 + 90 + 80
		t.Errorf("Expected total market value 190, got %v", report.TotalMarketValue)
	}
	if report.TotalProfit != 0 {
		t.Errorf("Expected total profit 0, got %v", report.TotalProfit)
	}
	if report.AverageEntryPrice != 63.33 { // 190 / 3 rounded
		t.Errorf("Expected average entry price 63.33, got %v", report.AverageEntryPrice)
	}
	if report.DistinctEditionCount != 2 {
		t.Errorf("Expected 2 distinct editions, got %d", report.DistinctEditionCount)
	}
	if report.GradeTenCount != 1 {
		t.Errorf("Expected 1 grade-10 entry, got %d", report.GradeTenCount)
	}

	if len(report.Top5ByMarketValue) != 3 {
		t.Fatalf("Expected 3 entries in top by market value, got %d", len(report.Top5ByMarketValue))
	}
	if report.Top5ByMarketValue[0].ID != "e2" { // unit price 90
		t.Errorf("Expected e2 on top by market value, got %s", report.Top5ByMarketValue[0].ID)
	}

	if len(report.Top5ByProfit) != 1 {
		t.Fatalf("Expected only the profitable entry in top by profit, got %d", len(report.Top5ByProfit))
	}
	if report.Top5ByProfit[0].ID != "e1" {
		t.Errorf("Expected e1 on top by profit, got %s", report.Top5ByProfit[0].ID)
	}
}

func TestBuildReportEmptyCollections(t *testing.T) {
	b := NewReportBuilder(&fakeStore{}, NewMarketPriceResolver(&fakePriceSource{}, nil, 10))

	report, err := b.BuildReport(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.EntryCount != 0 || report.TotalCost != 0 || report.AverageEntryPrice != 0 {
		t.Errorf("Expected zeroed report, got %+v", report)
	}
	if report.Top5ByMarketValue == nil || report.Top5ByProfit == nil {
		t.Error("Expected empty leaderboards, got nil")
	}
}

func TestBuildReportStoreFailureAborts(t *testing.T) {
	listErr := errors.New("database locked")
	b := NewReportBuilder(&fakeStore{listErr: listErr}, NewMarketPriceResolver(&fakePriceSource{}, nil, 10))

	_, err := b.BuildReport(context.Background(), "user1")
	if !errors.Is(err, listErr) {
		t.Errorf("Expected wrapped store error, got %v", err)
	}
}

func TestBuildReportToleratesPriceFailures(t *testing.T) {
	fs := &fakeStore{collections: []models.Collection{
		{
			CollectionName: "Binder",
			Cards:          []models.Entry{{ID: "e1", Name: "Pikachu", Quantity: 1, PurchasePrice: 7}},
		},
	}}
	source := &fakePriceSource{err: errors.New("market unreachable")}
	b := NewReportBuilder(fs, NewMarketPriceResolver(source, nil, 10))

	report, err := b.BuildReport(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Price failures must not abort the report, got %v", err)
	}

	if report.TotalMarketValue != 7 {
		t.Errorf("Expected fallback market value 7, got %v", report.TotalMarketValue)
	}
	if report.TotalProfit != 0 {
		t.Errorf("Expected zero profit under full fallback, got %v", report.TotalProfit)
	}
}
