package models

// Report is the assembled view-model for the reports page. Monetary fields
// are rounded to two fraction digits when the report is assembled; all
// intermediate computation keeps full precision.
type Report struct {
	TotalCost            float64       `json:"total_cost"`
	TotalMarketValue     float64       `json:"total_market_value"`
	TotalProfit          float64       `json:"total_profit"`
	AverageEntryPrice    float64       `json:"average_entry_price"`
	EntryCount           int           `json:"entry_count"`
	DistinctEditionCount int           `json:"distinct_edition_count"`
	GradeTenCount        int           `json:"grade_ten_count"`
	Top5ByMarketValue    []ValuedEntry `json:"top_5_by_market_value"`
	Top5ByProfit         []ValuedEntry `json:"top_5_by_profit"`
}
