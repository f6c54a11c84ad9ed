package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cardvault/cardvault/internal/metrics"
	"github.com/cardvault/cardvault/internal/models"
	"github.com/cardvault/cardvault/internal/store"
)

// ReportBuilder assembles the full report view-model from raw collection
// data: fetch, aggregate, resolve prices, derive metrics. The reports page
// and any downstream consumer go through the same pipeline.
type ReportBuilder struct {
	store    store.Store
	resolver *MarketPriceResolver
}

func NewReportBuilder(s store.Store, resolver *MarketPriceResolver) *ReportBuilder {
	return &ReportBuilder{
		store:    s,
		resolver: resolver,
	}
}

// BuildReport produces the report for a user. A collections fetch failure
// aborts the whole pipeline with a single error; individual price lookup
// failures are tolerated and fall back per entry.
func (b *ReportBuilder) BuildReport(ctx context.Context, userID string) (models.Report, error) {
	start := time.Now()

	collections, err := b.store.CollectionsByUser(ctx, userID)
	if err != nil {
		return models.Report{}, fmt.Errorf("failed to load collections for report: %w", err)
	}

	roster := Aggregate(collections, FilterAll)
	valued := b.resolver.ResolveAll(ctx, roster)

	totalCost := TotalCost(valued)
	totalMarketValue := TotalMarketValue(valued)

	report := models.Report{
		TotalCost:            RoundMoney(totalCost),
		TotalMarketValue:     RoundMoney(totalMarketValue),
		TotalProfit:          RoundMoney(totalMarketValue.Sub(totalCost)),
		AverageEntryPrice:    RoundMoney(AverageEntryPrice(valued)),
		EntryCount:           len(valued),
		DistinctEditionCount: DistinctEditionCount(valued),
		GradeTenCount:        GradeTenCount(valued),
		Top5ByMarketValue:    TopNByMarketValue(valued, 5),
		Top5ByProfit:         TopNByProfit(valued, 5),
	}

	metrics.ReportsGeneratedTotal.Inc()
	metrics.ReportBuildDuration.Observe(time.Since(start).Seconds())

	return report, nil
}
