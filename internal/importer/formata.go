// formata.go: parser for the flat simplified card JSON schema
package importer

import (
	"github.com/goccy/go-json"
)

// formatADocument is the wire shape of the simplified card schema.
type formatADocument struct {
	UUID     string   `json:"uuid"`
	Titles   []string `json:"titles"`
	Authors  []string `json:"authors"`
	Subjects []string `json:"subjects"`
	Dates    []string `json:"dates"`
	ImageIDs struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	} `json:"image_ids"`
	Left  *formatACrop `json:"left"`
	Right *formatACrop `json:"right"`
}

type formatACrop struct {
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Score float64 `json:"score"`
	Side  string  `json:"side"`
}

// parseFormatA attempts to parse data as the flat simplified schema. A MODS
// document will typically unmarshal without error here but carry no uuid,
// which is reported as a missing-field error so the caller falls back to
// the MODS parser.
func parseFormatA(file string, data []byte) (*ParsedCard, error) {
	var doc formatADocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformedJSON(file, err)
	}
	if doc.UUID == "" {
		return nil, missingField(file, "uuid")
	}

	record := &ParsedCard{
		UUID:         doc.UUID,
		Titles:       doc.Titles,
		Authors:      doc.Authors,
		Subjects:     doc.Subjects,
		Dates:        doc.Dates,
		FrontImageID: doc.ImageIDs.Front,
		BackImageID:  doc.ImageIDs.Back,
	}
	if doc.Left != nil {
		record.LeftCrop = doc.Left.toCropBox("left")
	}
	if doc.Right != nil {
		record.RightCrop = doc.Right.toCropBox("right")
	}
	return record, nil
}

func (c *formatACrop) toCropBox(defaultSide string) *CropBox {
	side := c.Side
	if side == "" {
		side = defaultSide
	}
	return &CropBox{
		Side:  side,
		X0:    c.X0,
		Y0:    c.Y0,
		X1:    c.X1,
		Y1:    c.Y1,
		Score: c.Score,
	}
}
