// export.go: JSON full-library export, distinct from the raw-file snapshot
package archive

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/retroview/retroview-go/internal/datastore"
	"github.com/retroview/retroview-go/internal/errors"
)

// exportVersion is bumped when the export document shape changes.
const exportVersion = 1

// LibraryExport is the portable JSON form of the whole library. Unlike the
// raw-file archive it survives schema migrations, at the cost of re-running
// entity resolution on load.
type LibraryExport struct {
	Version     int                `json:"version"`
	ExportedAt  time.Time          `json:"exported_at"`
	Cards       []ExportCard       `json:"cards"`
	Collections []ExportCollection `json:"collections"`
}

// ExportCard is one card with its metadata flattened back to plain text.
type ExportCard struct {
	UUID          string       `json:"uuid"`
	Titles        []string     `json:"titles,omitempty"`
	Authors       []string     `json:"authors,omitempty"`
	Subjects      []string     `json:"subjects,omitempty"`
	Dates         []string     `json:"dates,omitempty"`
	PickedTitle   string       `json:"picked_title,omitempty"`
	FrontImageID  string       `json:"front_image_id,omitempty"`
	BackImageID   string       `json:"back_image_id,omitempty"`
	FrontImage    []byte       `json:"front_image,omitempty"`
	BackImage     []byte       `json:"back_image,omitempty"`
	BackgroundHex string       `json:"background_hex,omitempty"`
	ImageOpacity  float64      `json:"image_opacity,omitempty"`
	Crops         []ExportCrop `json:"crops,omitempty"`
}

// ExportCrop mirrors one stereo half bounding box.
type ExportCrop struct {
	Side  string  `json:"side"`
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Score float64 `json:"score"`
}

// ExportCollection keeps a collection's name and exact card order.
type ExportCollection struct {
	Name      string   `json:"name"`
	CardUUIDs []string `json:"card_uuids"`
}

// LoadReport summarizes what a Load changed.
type LoadReport struct {
	CardsImported       int
	CardsSkipped        int
	CollectionsImported int
}

// Export serializes the whole library to compressed JSON.
func Export(store datastore.Interface) ([]byte, error) {
	cards, err := store.AllCards()
	if err != nil {
		return nil, err
	}
	collections, err := store.AllCollections()
	if err != nil {
		return nil, err
	}

	doc := LibraryExport{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
	}
	for i := range cards {
		doc.Cards = append(doc.Cards, exportCard(&cards[i]))
	}
	for i := range collections {
		col := &collections[i]
		exported := ExportCollection{Name: col.Name}
		for _, ref := range col.Cards {
			exported.CardUUIDs = append(exported.CardUUIDs, ref.CardUUID)
		}
		doc.Collections = append(doc.Collections, exported)
	}

	data, err := json.Marshal(&doc)
	if err != nil {
		return nil, errors.New(fmt.Errorf("encoding library export: %w", err)).
			Category(errors.CategoryArchive).
			Build()
	}
	return Compress(data)
}

func exportCard(card *datastore.Card) ExportCard {
	exported := ExportCard{
		UUID:          card.UUID,
		FrontImageID:  card.FrontImageID,
		BackImageID:   card.BackImageID,
		FrontImage:    card.FrontImage,
		BackImage:     card.BackImage,
		BackgroundHex: card.BackgroundHex,
		ImageOpacity:  card.ImageOpacity,
	}
	for _, t := range card.Titles {
		exported.Titles = append(exported.Titles, t.Text)
	}
	for _, a := range card.Authors {
		exported.Authors = append(exported.Authors, a.Text)
	}
	for _, s := range card.Subjects {
		exported.Subjects = append(exported.Subjects, s.Text)
	}
	for _, d := range card.Dates {
		exported.Dates = append(exported.Dates, d.Text)
	}
	if card.PickedTitle != nil {
		exported.PickedTitle = card.PickedTitle.Text
	}
	for _, crop := range card.Crops {
		exported.Crops = append(exported.Crops, ExportCrop{
			Side:  crop.Side,
			X0:    crop.X0,
			Y0:    crop.Y0,
			X1:    crop.X1,
			Y1:    crop.Y1,
			Score: crop.Score,
		})
	}
	return exported
}

// Load imports a compressed JSON export into the store. Cards whose uuid
// already exists are skipped; collections are created only when absent. A
// payload that is not a valid envelope and a payload whose decompressed
// bytes are not a valid export document fail with distinct errors.
func Load(store datastore.Interface, payload []byte) (*LoadReport, error) {
	data, err := Decompress(payload)
	if err != nil {
		return nil, err
	}

	var doc LibraryExport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(fmt.Errorf("decompressed payload is not a library export: %w", err)).
			Category(errors.CategoryFileParsing).
			Build()
	}

	report := &LoadReport{}
	for i := range doc.Cards {
		imported, err := loadCard(store, &doc.Cards[i])
		if err != nil {
			return report, err
		}
		if imported {
			report.CardsImported++
		} else {
			report.CardsSkipped++
		}
	}

	for _, exported := range doc.Collections {
		if _, err := store.GetCollection(exported.Name); err == nil {
			continue
		}
		if _, err := store.CreateCollection(exported.Name); err != nil {
			return report, err
		}
		for _, cardUUID := range exported.CardUUIDs {
			if err := store.AddCardToCollection(exported.Name, cardUUID); err != nil {
				return report, err
			}
		}
		report.CollectionsImported++
	}
	return report, nil
}

func loadCard(store datastore.Interface, exported *ExportCard) (bool, error) {
	exists, err := store.CardExists(exported.UUID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	card := &datastore.Card{
		UUID:          exported.UUID,
		FrontImageID:  exported.FrontImageID,
		BackImageID:   exported.BackImageID,
		FrontImage:    exported.FrontImage,
		BackImage:     exported.BackImage,
		BackgroundHex: exported.BackgroundHex,
		ImageOpacity:  exported.ImageOpacity,
	}

	for _, text := range exported.Titles {
		title, err := store.GetOrCreateTitle(text)
		if err != nil {
			return false, err
		}
		card.Titles = append(card.Titles, *title)
		if exported.PickedTitle != "" && text == exported.PickedTitle {
			card.PickedTitleID = &title.ID
		}
	}
	if card.PickedTitleID == nil && len(card.Titles) > 0 {
		card.PickedTitleID = &card.Titles[0].ID
	}
	for _, text := range exported.Authors {
		author, err := store.GetOrCreateAuthor(text)
		if err != nil {
			return false, err
		}
		card.Authors = append(card.Authors, *author)
	}
	for _, text := range exported.Subjects {
		subject, err := store.GetOrCreateSubject(text)
		if err != nil {
			return false, err
		}
		card.Subjects = append(card.Subjects, *subject)
	}
	for _, text := range exported.Dates {
		date, err := store.GetOrCreateDate(text)
		if err != nil {
			return false, err
		}
		card.Dates = append(card.Dates, *date)
	}
	for _, crop := range exported.Crops {
		card.Crops = append(card.Crops, datastore.Crop{
			Side:  crop.Side,
			X0:    crop.X0,
			Y0:    crop.Y0,
			X1:    crop.X1,
			Y1:    crop.Y1,
			Score: crop.Score,
		})
	}

	if err := store.InsertCard(card); err != nil {
		return false, err
	}
	return true, nil
}
