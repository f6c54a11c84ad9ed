package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cardvault/cardvault/internal/models"
)

// GormStore is the sqlite-backed store of record.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CollectionsByUser(ctx context.Context, userID string) ([]models.Collection, error) {
	db := s.db.WithContext(ctx)

	var collections []models.Collection
	if err := db.Where("user_id = ?", userID).Order("collection_id ASC").Find(&collections).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch collections for user %s: %w", userID, err)
	}

	var entries []models.Entry
	if err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch entries for user %s: %w", userID, err)
	}

	byCollection := make(map[string][]models.Entry)
	for _, e := range entries {
		byCollection[e.CollectionName] = append(byCollection[e.CollectionName], e)
	}

	for i := range collections {
		collections[i].Cards = []models.Entry{}
		collections[i].Items = []models.Entry{}
		for _, e := range byCollection[collections[i].CollectionName] {
			if e.Type == models.EntryTypeCard {
				collections[i].Cards = append(collections[i].Cards, e)
			} else {
				collections[i].Items = append(collections[i].Items, e)
			}
		}
	}

	return collections, nil
}

func (s *GormStore) CreateCollection(ctx context.Context, userID, collectionName string) error {
	db := s.db.WithContext(ctx)

	var count int64
	db.Model(&models.Collection{}).
		Where("user_id = ? AND collection_name = ?", userID, collectionName).
		Count(&count)
	if count > 0 {
		return ErrCollectionExists
	}

	collection := models.Collection{
		UserID:         userID,
		CollectionName: collectionName,
	}
	if err := db.Create(&collection).Error; err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collectionName, err)
	}
	return nil
}

func (s *GormStore) DeleteCollection(ctx context.Context, userID, collectionName string) error {
	db := s.db.WithContext(ctx)

	result := db.Where("user_id = ? AND collection_name = ?", userID, collectionName).
		Delete(&models.Collection{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete collection %s: %w", collectionName, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCollectionNotFound
	}

	// Entries belong to exactly one collection; removing the collection
	// removes them with it.
	if err := db.Where("user_id = ? AND collection_name = ?", userID, collectionName).
		Delete(&models.Entry{}).Error; err != nil {
		return fmt.Errorf("failed to delete entries of collection %s: %w", collectionName, err)
	}
	return nil
}

func (s *GormStore) AddEntry(ctx context.Context, userID, collectionName string, entry models.Entry) (models.Entry, error) {
	db := s.db.WithContext(ctx)

	var count int64
	db.Model(&models.Collection{}).
		Where("user_id = ? AND collection_name = ?", userID, collectionName).
		Count(&count)
	if count == 0 {
		return models.Entry{}, ErrCollectionNotFound
	}

	entry.ID = uuid.New().String()
	entry.UserID = userID
	entry.CollectionName = collectionName
	if entry.Quantity <= 0 {
		entry.Quantity = 1
	}
	if entry.Grade == "" {
		entry.Grade = models.GradeUngraded
	}
	if entry.PurchasePrice < 0 {
		return models.Entry{}, fmt.Errorf("purchase price must not be negative")
	}

	if err := db.Create(&entry).Error; err != nil {
		return models.Entry{}, fmt.Errorf("failed to add entry %s: %w", entry.Name, err)
	}
	return entry, nil
}

func (s *GormStore) UpdateQuantity(ctx context.Context, userID, collectionName, entryID string, quantity int) (models.Entry, error) {
	db := s.db.WithContext(ctx)

	if quantity < 0 {
		return models.Entry{}, fmt.Errorf("quantity must not be negative")
	}

	var entry models.Entry
	err := db.Where("id = ? AND user_id = ? AND collection_name = ?", entryID, userID, collectionName).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Entry{}, ErrEntryNotFound
		}
		return models.Entry{}, fmt.Errorf("failed to load entry %s: %w", entryID, err)
	}

	entry.Quantity = quantity
	if err := db.Save(&entry).Error; err != nil {
		return models.Entry{}, fmt.Errorf("failed to update quantity for entry %s: %w", entryID, err)
	}
	return entry, nil
}

func (s *GormStore) RemoveEntry(ctx context.Context, userID, collectionName, entryID string) error {
	db := s.db.WithContext(ctx)

	result := db.Where("id = ? AND user_id = ? AND collection_name = ?", entryID, userID, collectionName).
		Delete(&models.Entry{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove entry %s: %w", entryID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}
