// model.go this code defines the data model for the card library
package datastore

import "time"

// Image side identifiers for a card.
const (
	SideFront = "front"
	SideBack  = "back"
)

// Crop side identifiers for the stereo half-images.
const (
	CropSideLeft  = "left"
	CropSideRight = "right"
)

// Card represents a single stereoscopic photo card with its imagery and
// shared metadata references.
type Card struct {
	ID   uint   `gorm:"primaryKey"`
	UUID string `gorm:"uniqueIndex;size:36;not null"` // dedup key on import

	// External identifiers used to fetch imagery from the remote service.
	FrontImageID string
	BackImageID  string

	// Binary payloads, populated asynchronously after the record exists.
	FrontImage []byte `gorm:"type:blob"`
	BackImage  []byte `gorm:"type:blob"`

	BackgroundHex string `gorm:"size:7"` // background color derived from the image
	ImageOpacity  float64

	PickedTitleID *uint
	PickedTitle   *Title `gorm:"foreignKey:PickedTitleID"`

	Titles   []Title   `gorm:"many2many:card_titles"`
	Authors  []Author  `gorm:"many2many:card_authors"`
	Subjects []Subject `gorm:"many2many:card_subjects"`
	Dates    []Date    `gorm:"many2many:card_dates"`

	Crops []Crop `gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Title is a shared metadata entity keyed by its normalized text value.
type Title struct {
	ID   uint   `gorm:"primaryKey"`
	Text string `gorm:"uniqueIndex;not null"`
}

// Author is a shared metadata entity keyed by its normalized text value.
type Author struct {
	ID   uint   `gorm:"primaryKey"`
	Text string `gorm:"uniqueIndex;not null"`
}

// Subject is a shared metadata entity keyed by its normalized text value.
type Subject struct {
	ID   uint   `gorm:"primaryKey"`
	Text string `gorm:"uniqueIndex;not null"`
}

// Date is a shared metadata entity keyed by its normalized text value.
type Date struct {
	ID   uint   `gorm:"primaryKey"`
	Text string `gorm:"uniqueIndex;not null"`
}

// Crop describes a normalized bounding box locating one stereo half-image
// within a card's front image. A card owns at most one crop per side.
type Crop struct {
	ID     uint   `gorm:"primaryKey"`
	CardID uint   `gorm:"index;not null;uniqueIndex:idx_crops_card_side"`
	Side   string `gorm:"size:8;not null;uniqueIndex:idx_crops_card_side"` // "left" or "right"
	X0     float64
	Y0     float64
	X1     float64
	Y1     float64
	Score  float64 // detector confidence for this bounding box
}

// Collection is a user-defined, ordered, named set of card references.
// It holds cards weakly by uuid; deleting a card leaves a dangling
// reference that is skipped on resolution.
type Collection struct {
	ID        uint             `gorm:"primaryKey"`
	Name      string           `gorm:"uniqueIndex;not null"`
	Cards     []CollectionCard `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CollectionCard is one ordered card reference within a collection.
type CollectionCard struct {
	ID           uint   `gorm:"primaryKey"`
	CollectionID uint   `gorm:"index;not null"`
	CardUUID     string `gorm:"size:36;not null"`
	Position     int    `gorm:"not null"` // order is user-significant
}
