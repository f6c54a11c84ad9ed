package database

import (
	"log"

	"gorm.io/gorm"
)

// RunMigrations runs data migrations after schema changes. Safe to run more
// than once: every statement only touches rows that still need it.
func RunMigrations(db *gorm.DB) error {
	if err := normalizeGrades(db); err != nil {
		return err
	}
	if err := normalizeQuantities(db); err != nil {
		return err
	}
	return nil
}

// normalizeGrades fills in the default grade for entries imported from older
// exports where the field could be empty.
func normalizeGrades(db *gorm.DB) error {
	if !db.Migrator().HasColumn("entries", "grade") {
		return nil
	}

	result := db.Exec(`UPDATE entries SET grade = 'Ungraded' WHERE grade IS NULL OR grade = ''`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("Normalized grade on %d entries", result.RowsAffected)
	}
	return nil
}

// normalizeQuantities clamps negative quantities left behind by the legacy
// decrement path, which did not floor at zero.
func normalizeQuantities(db *gorm.DB) error {
	if !db.Migrator().HasColumn("entries", "quantity") {
		return nil
	}

	result := db.Exec(`UPDATE entries SET quantity = 0 WHERE quantity < 0`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("Clamped negative quantity on %d entries", result.RowsAffected)
	}
	return nil
}
