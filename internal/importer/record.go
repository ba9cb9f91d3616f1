// Package importer parses per-card metadata documents and turns them into
// store records. Two wire formats are supported: a flat simplified JSON
// schema (format A) and the nested MODS bibliographic schema (format B)
// used by the library API the cards originate from.
package importer

// CropBox is a normalized bounding box for one stereo half-image.
type CropBox struct {
	Side  string
	X0    float64
	Y0    float64
	X1    float64
	Y1    float64
	Score float64
}

// ParsedCard is the normalized in-memory form of one metadata document,
// independent of which wire format it was parsed from.
type ParsedCard struct {
	UUID     string
	Titles   []string
	Authors  []string
	Subjects []string
	Dates    []string

	FrontImageID string
	BackImageID  string

	LeftCrop  *CropBox
	RightCrop *CropBox
}
