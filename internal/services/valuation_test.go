package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cardvault/cardvault/internal/models"
)

func valued(id string, purchase, market float64, qty int) models.ValuedEntry {
	return models.ValuedEntry{
		Entry: models.Entry{
			ID:            id,
			Quantity:      qty,
			PurchasePrice: purchase,
		},
		MarketPrice:   market,
		PriceResolved: true,
	}
}

func TestValuationTotals(t *testing.T) {
	// Two copies bought at $5, worth $10 each.
	roster := []models.ValuedEntry{valued("e1", 5, 10, 2)}

	if got := RoundMoney(TotalCost(roster)); got != 10 {
		t.Errorf("Expected total cost 10, got %v", got)
	}
	if got := RoundMoney(TotalMarketValue(roster)); got != 20 {
		t.Errorf("Expected total market value 20, got %v", got)
	}
	if got := RoundMoney(TotalProfit(roster)); got != 10 {
		t.Errorf("Expected total profit 10, got %v", got)
	}
}

func TestValuationScalesWithQuantity(t *testing.T) {
	single := []models.ValuedEntry{
		valued("e1", 3.33, 7.77, 1),
		valued("e2", 1.25, 0.50, 1),
	}
	doubled := []models.ValuedEntry{
		valued("e1", 3.33, 7.77, 2),
		valued("e2", 1.25, 0.50, 2),
	}

	two := decimal.NewFromInt(2)
	if got, want := TotalCost(doubled), TotalCost(single).Mul(two); !got.Equal(want) {
		t.Errorf("Expected doubled cost %v, got %v", want, got)
	}
	if got, want := TotalMarketValue(doubled), TotalMarketValue(single).Mul(two); !got.Equal(want) {
		t.Errorf("Expected doubled market value %v, got %v", want, got)
	}
}

func TestValuationPrecision(t *testing.T) {
	// 0.1 + 0.2 style sums must come out exact after rounding.
	roster := []models.ValuedEntry{
		valued("e1", 0.10, 0.10, 1),
		valued("e2", 0.20, 0.20, 1),
	}

	if got := RoundMoney(TotalCost(roster)); got != 0.30 {
		t.Errorf("Expected total cost 0.30, got %v", got)
	}
}

func TestAverageEntryPrice(t *testing.T) {
	roster := []models.ValuedEntry{
		valued("e1", 10, 0, 1),
		valued("e2", 20, 0, 1),
	}

	if got := RoundMoney(AverageEntryPrice(roster)); got != 15 {
		t.Errorf("Expected average 15, got %v", got)
	}
}

func TestAverageEntryPriceEmptyRoster(t *testing.T) {
	if got := RoundMoney(AverageEntryPrice(nil)); got != 0 {
		t.Errorf("Expected average 0 for empty roster, got %v", got)
	}
}

func TestPerEntryProfit(t *testing.T) {
	e := valued("e1", 5, 10, 3)
	if got := RoundMoney(PerEntryProfit(e)); got != 15 {
		t.Errorf("Expected per-entry profit 15, got %v", got)
	}

	loss := valued("e2", 10, 5, 2)
	if got := RoundMoney(PerEntryProfit(loss)); got != -10 {
		t.Errorf("Expected per-entry profit -10, got %v", got)
	}
}

func TestTopNByMarketValueRanksByUnitPrice(t *testing.T) {
	roster := []models.ValuedEntry{
		valued("cheap-many", 1, 2, 100), // high total value, low unit price
		valued("expensive-one", 1, 50, 1),
		valued("mid", 1, 10, 1),
	}

	top := TopNByMarketValue(roster, 2)

	if len(top) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(top))
	}
	if top[0].ID != "expensive-one" || top[1].ID != "mid" {
		t.Errorf("Expected ranking by unit price [expensive-one mid], got [%s %s]", top[0].ID, top[1].ID)
	}
}

func TestTopNByMarketValueFewerThanN(t *testing.T) {
	roster := []models.ValuedEntry{valued("only", 1, 2, 1)}

	top := TopNByMarketValue(roster, 5)
	if len(top) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(top))
	}
}

func TestTopNByMarketValueStableTies(t *testing.T) {
	roster := []models.ValuedEntry{
		valued("first", 1, 10, 1),
		valued("second", 1, 10, 1),
	}

	top := TopNByMarketValue(roster, 2)
	if top[0].ID != "first" || top[1].ID != "second" {
		t.Errorf("Expected ties to keep roster order, got [%s %s]", top[0].ID, top[1].ID)
	}
}

func TestTopNByMarketValueDoesNotMutateInput(t *testing.T) {
	roster := []models.ValuedEntry{
		valued("low", 1, 1, 1),
		valued("high", 1, 100, 1),
	}

	TopNByMarketValue(roster, 2)

	if roster[0].ID != "low" {
		t.Errorf("Input roster was reordered: first entry is %s", roster[0].ID)
	}
}

func TestTopNByProfitExcludesNonPositive(t *testing.T) {
	roster := []models.ValuedEntry{
		valued("winner", 5, 10, 1),  // +5
		valued("flat", 10, 10, 1),   // 0
		valued("loser", 10, 5, 1),   // -5
		valued("big", 5, 10, 4),     // +20
	}

	top := TopNByProfit(roster, 5)

	if len(top) != 2 {
		t.Fatalf("Expected only profitable entries, got %d", len(top))
	}
	if top[0].ID != "big" || top[1].ID != "winner" {
		t.Errorf("Expected [big winner], got [%s %s]", top[0].ID, top[1].ID)
	}
}

func TestTopNByProfitScalesWithQuantity(t *testing.T) {
	roster := []models.ValuedEntry{
		valued("small-margin-many", 1, 2, 10), // +10
		valued("big-margin-one", 1, 6, 1),     // +5
	}

	top := TopNByProfit(roster, 1)
	if top[0].ID != "small-margin-many" {
		t.Errorf("Expected quantity-scaled ranking, got %s first", top[0].ID)
	}
}

func TestTopNNonPositiveN(t *testing.T) {
	roster := []models.ValuedEntry{valued("e1", 1, 2, 1)}

	for _, n := range []int{0, -1} {
		if got := TopNByMarketValue(roster, n); len(got) != 0 {
			t.Errorf("TopNByMarketValue(n=%d): expected empty result, got %d entries", n, len(got))
		}
		if got := TopNByProfit(roster, n); len(got) != 0 {
			t.Errorf("TopNByProfit(n=%d): expected empty result, got %d entries", n, len(got))
		}
	}
}

func TestDistinctEditionCount(t *testing.T) {
	roster := []models.ValuedEntry{
		{Entry: models.Entry{Edition: "Base Set"}},
		{Entry: models.Entry{Edition: "Base Set"}},
		{Entry: models.Entry{Edition: "Jungle"}},
		{Entry: models.Entry{Edition: ""}},
	}

	if got := DistinctEditionCount(roster); got != 2 {
		t.Errorf("Expected 2 distinct editions, got %d", got)
	}
}

func TestGradeTenCount(t *testing.T) {
	roster := []models.ValuedEntry{
		{Entry: models.Entry{Grade: "10"}},
		{Entry: models.Entry{Grade: "10"}},
		{Entry: models.Entry{Grade: "9"}},
		{Entry: models.Entry{Grade: models.GradeUngraded}},
		{Entry: models.Entry{Grade: ""}},
	}

	if got := GradeTenCount(roster); got != 2 {
		t.Errorf("Expected 2 grade-10 entries, got %d", got)
	}
}

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		purchase float64
		qty      int
		want     float64
	}{
		{1.005, 1, 1.01},
		{1.004, 1, 1.0},
		{0, 1, 0},
		{2.5, 3, 7.5},
	}

	for _, tt := range tests {
		roster := []models.ValuedEntry{valued("e", tt.purchase, 0, tt.qty)}
		if got := RoundMoney(TotalCost(roster)); got != tt.want {
			t.Errorf("RoundMoney(%v * %d): expected %v, got %v", tt.purchase, tt.qty, tt.want, got)
		}
	}
}
