package models

import (
	"time"
)

// ValueSnapshot records a user's collection value at a point in time, taken
// daily by the snapshot service for charting value history.
type ValueSnapshot struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID           string    `json:"user_id" gorm:"index;not null"`
	SnapshotDate     time.Time `json:"snapshot_date" gorm:"index"`
	EntryCount       int       `json:"entry_count"`
	TotalCost        float64   `json:"total_cost"`
	TotalMarketValue float64   `json:"total_market_value"`
	TotalProfit      float64   `json:"total_profit"`
	CreatedAt        time.Time `json:"created_at"`
}

type ValueHistoryResponse struct {
	Snapshots []ValueSnapshot `json:"snapshots"`
	Period    string          `json:"period"`
}
