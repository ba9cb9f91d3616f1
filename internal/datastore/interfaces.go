// interfaces.go: this code defines the interface for the card store operations
package datastore

import (
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/retroview/retroview-go/internal/conf"
	"github.com/retroview/retroview-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines the
// operations the import and caching pipeline performs against the store.
type Interface interface {
	Open() error
	Close() error

	// Cards
	CardExists(uuid string) (bool, error)
	GetCard(uuid string) (*Card, error)
	InsertCard(card *Card) error
	SaveCardImage(uuid, side string, data []byte) error
	SetCardAppearance(uuid, backgroundHex string, opacity float64) error
	AllCards() ([]Card, error)
	CardsWithoutImage(side string) ([]Card, error)
	CountCards() (int64, error)

	// Shared metadata entities, get-or-create by exact text match.
	GetOrCreateTitle(text string) (*Title, error)
	GetOrCreateAuthor(text string) (*Author, error)
	GetOrCreateSubject(text string) (*Subject, error)
	GetOrCreateDate(text string) (*Date, error)

	// Collections
	CreateCollection(name string) (*Collection, error)
	GetCollection(name string) (*Collection, error)
	DeleteCollection(name string) error
	AllCollections() ([]Collection, error)
	AddCardToCollection(name, cardUUID string) error
	RemoveCardFromCollection(name, cardUUID string) error
	ReorderCollection(name string, cardUUIDs []string) error
	ResolveCollection(name string) ([]Card, error)

	// Raw file locations for the archive codec.
	StorePath() string
	SidecarPaths() []string
}

// DataStore implements Interface using a GORM database.
//
// SQLite is not safe for concurrent writers, so every mutating operation and
// every read-check-then-insert sequence is serialized through mu. Readers
// that only select do not take the lock; WAL mode allows them to proceed
// alongside a writer.
type DataStore struct {
	DB *gorm.DB // GORM database instance
	mu sync.Mutex
}

// New creates a new store instance for the configured backend.
func New(settings *conf.Settings) Interface {
	return &SQLiteStore{
		Settings: settings,
	}
}

// CardExists reports whether a card with the given uuid is already stored.
func (ds *DataStore) CardExists(uuid string) (bool, error) {
	var count int64
	if err := ds.DB.Model(&Card{}).Where("uuid = ?", uuid).Count(&count).Error; err != nil {
		return false, errors.New(fmt.Errorf("checking card existence: %w", err)).
			Category(errors.CategoryDatabase).
			Context("uuid", uuid).
			Build()
	}
	return count > 0, nil
}

// GetCard retrieves a card with all its associations by uuid.
func (ds *DataStore) GetCard(uuid string) (*Card, error) {
	var card Card
	err := ds.DB.
		Preload("Titles").
		Preload("Authors").
		Preload("Subjects").
		Preload("Dates").
		Preload("Crops").
		Preload("PickedTitle").
		Where("uuid = ?", uuid).
		First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("card %s not found", uuid).
				Category(errors.CategoryNotFound).
				Build()
		}
		return nil, errors.New(fmt.Errorf("getting card: %w", err)).
			Category(errors.CategoryDatabase).
			Context("uuid", uuid).
			Build()
	}
	return &card, nil
}

// InsertCard stores a card together with its crops and metadata association
// rows in a single transaction.
func (ds *DataStore) InsertCard(card *Card) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if card.UUID == "" {
		return errors.Newf("card is missing a uuid").
			Category(errors.CategoryValidation).
			Build()
	}

	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(card).Error
	})
	if err != nil {
		return errors.New(fmt.Errorf("inserting card: %w", err)).
			Category(errors.CategoryDatabase).
			Context("uuid", card.UUID).
			Build()
	}
	return nil
}

// SaveCardImage attaches fetched image bytes to the given side of a card.
func (ds *DataStore) SaveCardImage(uuid, side string, data []byte) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	var column string
	switch side {
	case SideFront:
		column = "front_image"
	case SideBack:
		column = "back_image"
	default:
		return errors.Newf("unknown card side %q", side).
			Category(errors.CategoryValidation).
			Build()
	}

	result := ds.DB.Model(&Card{}).Where("uuid = ?", uuid).Update(column, data)
	if result.Error != nil {
		return errors.New(fmt.Errorf("saving card image: %w", result.Error)).
			Category(errors.CategoryDatabase).
			Context("uuid", uuid).
			Context("side", side).
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("card %s not found", uuid).
			Category(errors.CategoryNotFound).
			Build()
	}
	return nil
}

// SetCardAppearance stores the background color and opacity derived from a
// card's imagery.
func (ds *DataStore) SetCardAppearance(uuid, backgroundHex string, opacity float64) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	result := ds.DB.Model(&Card{}).Where("uuid = ?", uuid).Updates(map[string]any{
		"background_hex": backgroundHex,
		"image_opacity":  opacity,
	})
	if result.Error != nil {
		return errors.New(fmt.Errorf("updating card appearance: %w", result.Error)).
			Category(errors.CategoryDatabase).
			Context("uuid", uuid).
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("card %s not found", uuid).
			Category(errors.CategoryNotFound).
			Build()
	}
	return nil
}

// AllCards returns every stored card with its associations.
func (ds *DataStore) AllCards() ([]Card, error) {
	var cards []Card
	err := ds.DB.
		Preload("Titles").
		Preload("Authors").
		Preload("Subjects").
		Preload("Dates").
		Preload("Crops").
		Preload("PickedTitle").
		Find(&cards).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("listing cards: %w", err)).
			Category(errors.CategoryDatabase).
			Build()
	}
	return cards, nil
}

// CardsWithoutImage returns cards that have an external image id for the
// given side but no stored payload yet. These are the candidates for
// background image population and thumbnail prefetch.
func (ds *DataStore) CardsWithoutImage(side string) ([]Card, error) {
	var idColumn, imgColumn string
	switch side {
	case SideFront:
		idColumn, imgColumn = "front_image_id", "front_image"
	case SideBack:
		idColumn, imgColumn = "back_image_id", "back_image"
	default:
		return nil, errors.Newf("unknown card side %q", side).
			Category(errors.CategoryValidation).
			Build()
	}

	var cards []Card
	err := ds.DB.
		Where(idColumn+" <> ''").
		Where(imgColumn + " IS NULL").
		Find(&cards).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("listing cards without %s image: %w", side, err)).
			Category(errors.CategoryDatabase).
			Build()
	}
	return cards, nil
}

// CountCards returns the number of stored cards.
func (ds *DataStore) CountCards() (int64, error) {
	var count int64
	if err := ds.DB.Model(&Card{}).Count(&count).Error; err != nil {
		return 0, errors.New(fmt.Errorf("counting cards: %w", err)).
			Category(errors.CategoryDatabase).
			Build()
	}
	return count, nil
}
