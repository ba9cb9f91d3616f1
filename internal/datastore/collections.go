// collections.go: user-defined ordered card collections
package datastore

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/retroview/retroview-go/internal/errors"
)

// CreateCollection creates a new empty collection with the given name.
func (ds *DataStore) CreateCollection(name string) (*Collection, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if name == "" {
		return nil, errors.Newf("collection name must not be empty").
			Category(errors.CategoryValidation).
			Build()
	}

	collection := Collection{Name: name}
	if err := ds.DB.Create(&collection).Error; err != nil {
		return nil, errors.New(fmt.Errorf("creating collection: %w", err)).
			Category(errors.CategoryDatabase).
			Context("name", name).
			Build()
	}
	return &collection, nil
}

// GetCollection returns the collection with the given name, its card
// references ordered by position.
func (ds *DataStore) GetCollection(name string) (*Collection, error) {
	var collection Collection
	err := ds.DB.
		Preload("Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("name = ?", name).
		First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("collection %q not found", name).
				Category(errors.CategoryNotFound).
				Build()
		}
		return nil, errors.New(fmt.Errorf("getting collection: %w", err)).
			Category(errors.CategoryDatabase).
			Context("name", name).
			Build()
	}
	return &collection, nil
}

// DeleteCollection removes a collection and its card references. Cards
// themselves are untouched.
func (ds *DataStore) DeleteCollection(name string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var collection Collection
		if err := tx.Where("name = ?", name).First(&collection).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Newf("collection %q not found", name).
					Category(errors.CategoryNotFound).
					Build()
			}
			return err
		}
		if err := tx.Where("collection_id = ?", collection.ID).Delete(&CollectionCard{}).Error; err != nil {
			return err
		}
		return tx.Delete(&collection).Error
	})
}

// AllCollections returns every collection with ordered card references.
func (ds *DataStore) AllCollections() ([]Collection, error) {
	var collections []Collection
	err := ds.DB.
		Preload("Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&collections).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("listing collections: %w", err)).
			Category(errors.CategoryDatabase).
			Build()
	}
	return collections, nil
}

// AddCardToCollection appends a card reference to the end of a collection.
// Adding a card that is already present is a no-op.
func (ds *DataStore) AddCardToCollection(name, cardUUID string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var collection Collection
		if err := tx.Where("name = ?", name).First(&collection).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Newf("collection %q not found", name).
					Category(errors.CategoryNotFound).
					Build()
			}
			return err
		}

		var existing int64
		if err := tx.Model(&CollectionCard{}).
			Where("collection_id = ? AND card_uuid = ?", collection.ID, cardUUID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		var maxPosition int
		row := tx.Model(&CollectionCard{}).
			Where("collection_id = ?", collection.ID).
			Select("COALESCE(MAX(position), -1)").
			Row()
		if err := row.Scan(&maxPosition); err != nil {
			return err
		}

		return tx.Create(&CollectionCard{
			CollectionID: collection.ID,
			CardUUID:     cardUUID,
			Position:     maxPosition + 1,
		}).Error
	})
}

// RemoveCardFromCollection removes a card reference. Positions of the
// remaining references are left untouched; relative order is preserved.
func (ds *DataStore) RemoveCardFromCollection(name, cardUUID string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var collection Collection
		if err := tx.Where("name = ?", name).First(&collection).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Newf("collection %q not found", name).
					Category(errors.CategoryNotFound).
					Build()
			}
			return err
		}
		return tx.Where("collection_id = ? AND card_uuid = ?", collection.ID, cardUUID).
			Delete(&CollectionCard{}).Error
	})
}

// ReorderCollection replaces a collection's card list with the given order.
// Reordering is a full-list replace, not a diff; concurrent reorders are not
// supported and the last writer wins.
func (ds *DataStore) ReorderCollection(name string, cardUUIDs []string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var collection Collection
		if err := tx.Where("name = ?", name).First(&collection).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Newf("collection %q not found", name).
					Category(errors.CategoryNotFound).
					Build()
			}
			return err
		}

		if err := tx.Where("collection_id = ?", collection.ID).Delete(&CollectionCard{}).Error; err != nil {
			return err
		}
		for i, uuid := range cardUUIDs {
			ref := CollectionCard{
				CollectionID: collection.ID,
				CardUUID:     uuid,
				Position:     i,
			}
			if err := tx.Create(&ref).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ResolveCollection returns the cards of a collection in stored order.
// Dangling references to deleted cards are skipped, not errors.
func (ds *DataStore) ResolveCollection(name string) ([]Card, error) {
	collection, err := ds.GetCollection(name)
	if err != nil {
		return nil, err
	}
	if len(collection.Cards) == 0 {
		return nil, nil
	}

	uuids := make([]string, 0, len(collection.Cards))
	for _, ref := range collection.Cards {
		uuids = append(uuids, ref.CardUUID)
	}

	var cards []Card
	err = ds.DB.
		Preload("Titles").
		Preload("Crops").
		Preload("PickedTitle").
		Where("uuid IN ?", uuids).
		Find(&cards).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("resolving collection cards: %w", err)).
			Category(errors.CategoryDatabase).
			Context("name", name).
			Build()
	}

	byUUID := make(map[string]*Card, len(cards))
	for i := range cards {
		byUUID[cards[i].UUID] = &cards[i]
	}

	resolved := make([]Card, 0, len(collection.Cards))
	for _, ref := range collection.Cards {
		if card, ok := byUUID[ref.CardUUID]; ok {
			resolved = append(resolved, *card)
		}
	}
	return resolved, nil
}
