package database

import (
	"log"

	"github.com/cardvault/cardvault/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Initialize(dbPath string) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	log.Println("Database connected successfully")

	err = DB.AutoMigrate(
		&models.Collection{},
		&models.Entry{},
		&models.MarketData{},
		&models.Product{},
		&models.CartItem{},
		&models.ValueSnapshot{},
	)
	if err != nil {
		return err
	}

	if err := RunMigrations(DB); err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}

func GetDB() *gorm.DB {
	return DB
}
