package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/cardvault/cardvault/internal/models"
)

// SnapshotService records each user's collection value once a day, valuing
// entries at their cached market price with a purchase-price fallback, for
// the value history chart.
type SnapshotService struct {
	db            *gorm.DB
	snapshotHour  int // Hour of day to take snapshots (0-23)
	checkInterval time.Duration

	mu           sync.Mutex
	lastSnapshot time.Time
}

func NewSnapshotService(db *gorm.DB) *SnapshotService {
	return &SnapshotService{
		db:            db,
		snapshotHour:  23, // Default: 11 PM
		checkInterval: 15 * time.Minute,
	}
}

// Start begins the background snapshot worker.
func (s *SnapshotService) Start(ctx context.Context) {
	log.Println("Snapshot service started: will record daily collection values")

	s.checkAndSnapshot()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Snapshot service stopping...")
			return
		case <-ticker.C:
			s.checkAndSnapshot()
		}
	}
}

func (s *SnapshotService) checkAndSnapshot() {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if s.snapshotsUpToDate(today) {
		return
	}

	if now.Hour() >= s.snapshotHour {
		if err := s.TakeSnapshots(); err != nil {
			log.Printf("Snapshot service: failed to take snapshots: %v", err)
		}
	}
}

// snapshotsUpToDate reports whether every user that owns entries already has
// a snapshot for the date. A user whose first entry arrives after the day's
// run still gets picked up by a later tick; TakeSnapshots upserts, so the
// re-run leaves existing snapshots intact.
func (s *SnapshotService) snapshotsUpToDate(date time.Time) bool {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	var userCount int64
	s.db.Model(&models.Entry{}).Distinct("user_id").Count(&userCount)
	if userCount == 0 {
		return true
	}

	var snapshotCount int64
	s.db.Model(&models.ValueSnapshot{}).
		Where("snapshot_date >= ? AND snapshot_date < ?", startOfDay, endOfDay).
		Count(&snapshotCount)

	return snapshotCount >= userCount
}

// TakeSnapshots records the current collection value for every user that
// owns at least one entry.
func (s *SnapshotService) TakeSnapshots() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	snapshotDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	type userStats struct {
		UserID           string
		EntryCount       int
		TotalCost        float64
		TotalMarketValue float64
	}

	var results []userStats
	err := s.db.Table("entries").
		Select(`
			entries.user_id,
			SUM(entries.quantity) as entry_count,
			SUM(entries.purchase_price * entries.quantity) as total_cost,
			SUM(COALESCE(md.price, entries.purchase_price) * entries.quantity) as total_market_value
		`).
		Joins("LEFT JOIN market_data md ON md.entry_id = entries.id").
		Group("entries.user_id").
		Scan(&results).Error
	if err != nil {
		return err
	}

	for _, r := range results {
		snapshot := models.ValueSnapshot{
			UserID:           r.UserID,
			SnapshotDate:     snapshotDate,
			EntryCount:       r.EntryCount,
			TotalCost:        r.TotalCost,
			TotalMarketValue: r.TotalMarketValue,
			TotalProfit:      r.TotalMarketValue - r.TotalCost,
			CreatedAt:        now,
		}

		// Upsert so a re-run on the same day updates instead of duplicating.
		result := s.db.Where("user_id = ? AND DATE(snapshot_date) = DATE(?)", r.UserID, snapshotDate).
			Assign(models.ValueSnapshot{
				EntryCount:       snapshot.EntryCount,
				TotalCost:        snapshot.TotalCost,
				TotalMarketValue: snapshot.TotalMarketValue,
				TotalProfit:      snapshot.TotalProfit,
			}).
			FirstOrCreate(&snapshot)
		if result.Error != nil {
			log.Printf("Snapshot service: failed to record snapshot for user %s: %v", r.UserID, result.Error)
			continue
		}

		log.Printf("Snapshot service: recorded snapshot for user %s on %s (value: $%.2f, entries: %d)",
			r.UserID, snapshotDate.Format("2006-01-02"), r.TotalMarketValue, r.EntryCount)
	}

	s.lastSnapshot = now
	return nil
}

// GetHistory retrieves a user's value snapshots for a given period.
func (s *SnapshotService) GetHistory(userID, period string) ([]models.ValueSnapshot, error) {
	var snapshots []models.ValueSnapshot

	now := time.Now()
	var startDate time.Time

	switch period {
	case "week":
		startDate = now.AddDate(0, 0, -7)
	case "month":
		startDate = now.AddDate(0, -1, 0)
	case "3month":
		startDate = now.AddDate(0, -3, 0)
	case "year":
		startDate = now.AddDate(-1, 0, 0)
	case "all":
		startDate = time.Time{} // No filter
	default:
		startDate = now.AddDate(0, -1, 0) // Default to 1 month
	}

	query := s.db.Where("user_id = ?", userID).Order("snapshot_date ASC")
	if !startDate.IsZero() {
		query = query.Where("snapshot_date >= ?", startDate)
	}

	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}

	return snapshots, nil
}

// ForceTakeSnapshots takes snapshots regardless of timing (manual trigger).
func (s *SnapshotService) ForceTakeSnapshots() error {
	return s.TakeSnapshots()
}
