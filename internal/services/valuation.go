package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cardvault/cardvault/internal/models"
)

// Valuation functions are pure computations over a valued roster. All money
// math runs on decimals at full precision; rounding happens once, at the
// presentation boundary, via RoundMoney.

// TotalCost is the cost basis of the roster: sum of purchase price times
// quantity over every entry.
func TotalCost(entries []models.ValuedEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		cost := decimal.NewFromFloat(e.PurchasePrice).Mul(decimal.NewFromInt(int64(e.Quantity)))
		total = total.Add(cost)
	}
	return total
}

// TotalMarketValue is the sum of market price times quantity over every
// entry.
func TotalMarketValue(entries []models.ValuedEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		value := decimal.NewFromFloat(e.MarketPrice).Mul(decimal.NewFromInt(int64(e.Quantity)))
		total = total.Add(value)
	}
	return total
}

// TotalProfit is market value minus cost basis.
func TotalProfit(entries []models.ValuedEntry) decimal.Decimal {
	return TotalMarketValue(entries).Sub(TotalCost(entries))
}

// AverageEntryPrice is the cost basis divided by the entry count, or zero for
// an empty roster.
func AverageEntryPrice(entries []models.ValuedEntry) decimal.Decimal {
	if len(entries) == 0 {
		return decimal.Zero
	}
	return TotalCost(entries).Div(decimal.NewFromInt(int64(len(entries))))
}

// PerEntryProfit is (market price - purchase price) * quantity for a single
// entry.
func PerEntryProfit(e models.ValuedEntry) decimal.Decimal {
	unit := decimal.NewFromFloat(e.MarketPrice).Sub(decimal.NewFromFloat(e.PurchasePrice))
	return unit.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// TopNByMarketValue returns the n entries with the highest unit market price,
// descending. Ranking is by unit price, not quantity-scaled value, matching
// the per-entry price shown in the product. Ties keep roster order.
func TopNByMarketValue(entries []models.ValuedEntry, n int) []models.ValuedEntry {
	if n <= 0 {
		return []models.ValuedEntry{}
	}

	ranked := make([]models.ValuedEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MarketPrice > ranked[j].MarketPrice
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// TopNByProfit returns up to n entries with the highest quantity-scaled
// profit, descending. Entries with zero or negative profit never appear, even
// when fewer than n qualify. Ties keep roster order.
func TopNByProfit(entries []models.ValuedEntry, n int) []models.ValuedEntry {
	if n <= 0 {
		return []models.ValuedEntry{}
	}

	profitable := make([]models.ValuedEntry, 0, len(entries))
	for _, e := range entries {
		if PerEntryProfit(e).IsPositive() {
			profitable = append(profitable, e)
		}
	}

	sort.SliceStable(profitable, func(i, j int) bool {
		return PerEntryProfit(profitable[i]).GreaterThan(PerEntryProfit(profitable[j]))
	})

	if n < len(profitable) {
		profitable = profitable[:n]
	}
	return profitable
}

// DistinctEditionCount counts the distinct non-empty editions on the roster.
func DistinctEditionCount(entries []models.ValuedEntry) int {
	editions := make(map[string]struct{})
	for _, e := range entries {
		if e.Edition != "" {
			editions[e.Edition] = struct{}{}
		}
	}
	return len(editions)
}

// GradeTenCount counts entries graded exactly 10. "Ungraded" never matches.
func GradeTenCount(entries []models.ValuedEntry) int {
	count := 0
	for _, e := range entries {
		if v, ok := e.GradeValue(); ok && v == 10 {
			count++
		}
	}
	return count
}

// RoundMoney rounds a monetary amount to two fraction digits for display.
// Only report assembly and API responses call this; intermediate sums stay
// at full precision.
func RoundMoney(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
