package models

import (
	"strconv"
	"time"
)

type EntryType string

const (
	EntryTypeCard EntryType = "card"
	EntryTypeItem EntryType = "item"
)

// GradeUngraded is the literal grade value for entries that have not been
// professionally graded. All other valid grades are "1".."10".
const GradeUngraded = "Ungraded"

// Entry is one owned collectible (a card or an item) inside a collection.
type Entry struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UserID         string    `json:"user_id,omitempty" gorm:"index;not null"`
	CollectionName string    `json:"collection_name" gorm:"index;not null"`
	Type           EntryType `json:"type" gorm:"not null;index"`
	Name           string    `json:"name" gorm:"not null;index"`
	Edition        string    `json:"edition"`
	Set            string    `json:"set"`
	Grade          string    `json:"grade" gorm:"default:'Ungraded'"`
	Quantity       int       `json:"quantity" gorm:"default:1"`
	PurchasePrice  float64   `json:"purchase_price"`
	Image          string    `json:"image,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GradeValue returns the numeric grade and true, or 0 and false for
// "Ungraded" or any non-numeric grade.
func (e *Entry) GradeValue() (int, bool) {
	if e.Grade == GradeUngraded || e.Grade == "" {
		return 0, false
	}
	v, err := strconv.Atoi(e.Grade)
	if err != nil || v < 1 || v > 10 {
		return 0, false
	}
	return v, true
}

// Collection is a named, user-owned grouping of entries. Cards and Items are
// derived views split by entry type; they are assembled by the store, not
// persisted as separate tables.
type Collection struct {
	CollectionID   uint    `json:"collection_id" gorm:"primaryKey;autoIncrement"`
	UserID         string  `json:"user_id" gorm:"uniqueIndex:idx_user_collection;not null"`
	CollectionName string  `json:"collection_name" gorm:"uniqueIndex:idx_user_collection;not null"`
	Cards          []Entry `json:"cards" gorm:"-"`
	Items          []Entry `json:"items" gorm:"-"`
}

// ValuedEntry is an Entry enriched with a resolved market price. Ephemeral,
// recomputed whenever the roster or price data changes.
type ValuedEntry struct {
	Entry
	MarketPrice float64 `json:"market_price"`
	// PriceResolved is false when no market data was available and
	// MarketPrice fell back to the purchase price.
	PriceResolved bool   `json:"price_resolved"`
	PriceSource   string `json:"price_source"` // "market" or "fallback"
}

type AddEntryRequest struct {
	CollectionName string    `json:"collection_name" binding:"required"`
	Type           EntryType `json:"type" binding:"required"`
	Name           string    `json:"name" binding:"required"`
	Edition        string    `json:"edition"`
	Set            string    `json:"set"`
	Grade          string    `json:"grade"`
	Quantity       int       `json:"quantity"`
	PurchasePrice  float64   `json:"purchase_price"`
	Image          string    `json:"image"`
	ImageData      string    `json:"image_data,omitempty"` // base64 encoded upload
}

type UpdateQuantityRequest struct {
	CollectionName string `json:"collection_name" binding:"required"`
	Quantity       *int   `json:"quantity" binding:"required"`
}

type CreateCollectionRequest struct {
	CollectionName string `json:"collection_name" binding:"required"`
}
