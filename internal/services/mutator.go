package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cardvault/cardvault/internal/models"
	"github.com/cardvault/cardvault/internal/store"
)

// ErrInvalidEntry marks a caller-contract violation: a mutation was requested
// for a nil entry or one without an id. No store call is made for these; they
// are bugs in the caller, not transient failures.
var ErrInvalidEntry = errors.New("entry is missing or has no id")

// MinQuantity is the floor a decrement can reach. Entries stay at quantity
// zero until explicitly removed; decrementing never deletes.
const MinQuantity = 0

// QuantityMutator applies relative quantity changes to roster entries,
// writing through to the collection store. Local state is only updated from
// the returned entry, after the store confirms the write.
type QuantityMutator struct {
	store store.Store
}

func NewQuantityMutator(s store.Store) *QuantityMutator {
	return &QuantityMutator{store: s}
}

// Increment raises the entry's quantity by one and returns the merged updated
// entry. On failure the caller's roster must stay untouched.
func (m *QuantityMutator) Increment(ctx context.Context, entry *models.Entry, userID string) (models.Entry, error) {
	if err := validateEntry(entry, "increment"); err != nil {
		return models.Entry{}, err
	}

	updated, err := m.store.UpdateQuantity(ctx, userID, entry.CollectionName, entry.ID, entry.Quantity+1)
	if err != nil {
		log.Printf("Failed to increment quantity for entry %s: %v", entry.ID, err)
		return models.Entry{}, fmt.Errorf("increment entry %s: %w", entry.ID, err)
	}

	return mergeEntry(*entry, updated), nil
}

// Decrement lowers the entry's quantity by one, flooring at MinQuantity, and
// returns the merged updated entry.
func (m *QuantityMutator) Decrement(ctx context.Context, entry *models.Entry, userID string) (models.Entry, error) {
	if err := validateEntry(entry, "decrement"); err != nil {
		return models.Entry{}, err
	}

	newQuantity := entry.Quantity - 1
	if newQuantity < MinQuantity {
		newQuantity = MinQuantity
	}

	updated, err := m.store.UpdateQuantity(ctx, userID, entry.CollectionName, entry.ID, newQuantity)
	if err != nil {
		log.Printf("Failed to decrement quantity for entry %s: %v", entry.ID, err)
		return models.Entry{}, fmt.Errorf("decrement entry %s: %w", entry.ID, err)
	}

	return mergeEntry(*entry, updated), nil
}

// Remove deletes the entry from its collection. The caller drops the entry
// from derived views only when this returns nil.
func (m *QuantityMutator) Remove(ctx context.Context, userID, collectionName, entryID string) error {
	if entryID == "" {
		log.Printf("Caller contract violation: remove called without an entry id (collection %s)", collectionName)
		return ErrInvalidEntry
	}

	if err := m.store.RemoveEntry(ctx, userID, collectionName, entryID); err != nil {
		log.Printf("Failed to remove entry %s from collection %s: %v", entryID, collectionName, err)
		return fmt.Errorf("remove entry %s: %w", entryID, err)
	}
	return nil
}

func validateEntry(entry *models.Entry, op string) error {
	if entry == nil || entry.ID == "" {
		log.Printf("Caller contract violation: %s called with missing entry identity (%+v)", op, entry)
		return ErrInvalidEntry
	}
	return nil
}

// mergeEntry folds a confirmed store response into the local entry. The store
// is authoritative for the listed fields; CollectionName and Type are roster
// tags owned by the client view and are kept from the local copy so a sparse
// response cannot clobber them.
func mergeEntry(local, server models.Entry) models.Entry {
	merged := local
	merged.Name = server.Name
	merged.Edition = server.Edition
	merged.Set = server.Set
	merged.Grade = server.Grade
	merged.Quantity = server.Quantity
	merged.PurchasePrice = server.PurchasePrice
	merged.UpdatedAt = server.UpdatedAt
	if server.Image != "" {
		merged.Image = server.Image
	}
	return merged
}
