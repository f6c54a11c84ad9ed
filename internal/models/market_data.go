package models

import (
	"time"
)

// MarketData is a persisted market-price observation for an entry's
// identifying attributes. Rows older than the staleness threshold are
// refreshed by the market data worker or on demand. Rows without an entry id
// (ad-hoc lookups) are keyed on name+edition+grade+type instead, so EntryID
// must not carry a unique index.
type MarketData struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	EntryID     string    `json:"entry_id" gorm:"index"`
	Name        string    `json:"name" gorm:"index"`
	Edition     string    `json:"edition"`
	Grade       string    `json:"grade"`
	Type        EntryType `json:"type"`
	Price       float64   `json:"price"`
	LastUpdated time.Time `json:"last_updated"`
}

func (MarketData) TableName() string {
	return "market_data"
}
