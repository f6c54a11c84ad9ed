// Package store defines the collection store of record: the API every core
// component goes through to read or mutate a user's collections. Components
// depend on the Store interface so tests can substitute fakes.
package store

import (
	"context"
	"errors"

	"github.com/cardvault/cardvault/internal/models"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrCollectionExists   = errors.New("collection already exists")
)

type Store interface {
	// CollectionsByUser returns every collection the user owns, with Cards
	// and Items populated in creation order.
	CollectionsByUser(ctx context.Context, userID string) ([]models.Collection, error)

	CreateCollection(ctx context.Context, userID, collectionName string) error
	DeleteCollection(ctx context.Context, userID, collectionName string) error

	// AddEntry persists a new entry with a server-assigned id and returns it.
	AddEntry(ctx context.Context, userID, collectionName string, entry models.Entry) (models.Entry, error)

	// UpdateQuantity sets the entry's quantity and returns the stored entry.
	// The caller must not touch local state unless this succeeds.
	UpdateQuantity(ctx context.Context, userID, collectionName, entryID string, quantity int) (models.Entry, error)

	RemoveEntry(ctx context.Context, userID, collectionName, entryID string) error
}
