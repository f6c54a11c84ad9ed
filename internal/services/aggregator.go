package services

import (
	"github.com/cardvault/cardvault/internal/models"
)

// FilterAll selects every collection when building a roster.
const FilterAll = "all"

// Aggregate flattens per-collection card and item lists into a single roster,
// tagging each entry with its source collection and type. Collections keep
// their input order, cards come before items within a collection, and the
// intra-list order is preserved. A filter that matches no collection yields an
// empty roster, not an error. Entries are never deduplicated: if the same id
// shows up in two collections, both survive.
func Aggregate(collections []models.Collection, filter string) []models.Entry {
	roster := make([]models.Entry, 0)

	for _, c := range collections {
		if filter != FilterAll && c.CollectionName != filter {
			continue
		}
		for _, card := range c.Cards {
			card.CollectionName = c.CollectionName
			card.Type = models.EntryTypeCard
			roster = append(roster, card)
		}
		for _, item := range c.Items {
			item.CollectionName = c.CollectionName
			item.Type = models.EntryTypeItem
			roster = append(roster, item)
		}
	}

	return roster
}
