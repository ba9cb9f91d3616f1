package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modsDoc = `{
  "card": {
    "nyplAPI": {
      "response": {
        "mods": {
          "identifier": [
            {"$": "b11707201", "type": "local_bnumber"},
            {"$": "510d47e1-4d4f-a3d9-e040-e00a18064a99", "type": "uuid"}
          ],
          "titleInfo": [
            [{"title": {"$": "Pike's Peak from the Garden of the Gods"}}],
            {"title": [{"$": "Alternate title"}, "Plain string title"]}
          ],
          "name": {"namePart": {"$": "Jackson, William Henry"}},
          "subject": [
            {"geographic": {"$": "Colorado"}},
            {"topic": [{"$": "Mountains"}, {"$": "Rock formations"}]}
          ],
          "originInfo": {"dateCreated": {"$": "1898, 1899"}}
        },
        "capture": [
          {"imageID": {"$": "G90F186_030F"}},
          {"imageID": "G90F186_030B"},
          {"imageID": {"$": "G90F186_031F"}}
        ]
      }
    }
  }
}`

func TestParseMODS(t *testing.T) {
	record, err := parseMODS("mods.json", []byte(modsDoc))
	require.NoError(t, err)

	assert.Equal(t, testUUID, record.UUID)
	assert.Equal(t, []string{
		"Pike's Peak from the Garden of the Gods",
		"Alternate title",
		"Plain string title",
	}, record.Titles)
	assert.Equal(t, []string{"Jackson, William Henry"}, record.Authors)
	assert.Equal(t, []string{"Colorado", "Mountains", "Rock formations"}, record.Subjects)
	assert.Equal(t, []string{"1898", "1899"}, record.Dates)

	// First capture per side wins.
	assert.Equal(t, "G90F186_030F", record.FrontImageID)
	assert.Equal(t, "G90F186_030B", record.BackImageID)

	// MODS documents carry no crop geometry.
	assert.Nil(t, record.LeftCrop)
	assert.Nil(t, record.RightCrop)
}

func TestParseMODSMissingResponse(t *testing.T) {
	_, err := parseMODS("mods.json", []byte(`{"card": {}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStructure)
}

func TestParseMODSMissingMods(t *testing.T) {
	_, err := parseMODS("mods.json", []byte(`{"card": {"nyplAPI": {"response": {}}}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStructure)
}

func TestParseMODSMissingUUID(t *testing.T) {
	_, err := parseMODS("mods.json", []byte(`{
	  "card": {"nyplAPI": {"response": {"mods": {
	    "identifier": {"$": "b11707201", "type": "local_bnumber"}
	  }}}}
	}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestParseMODSControlCharacters(t *testing.T) {
	doc := "{\"card\": {\"nyplAPI\": {\"response\": {\"mods\": {" +
		"\"identifier\": {\"$\": \"510d47e1-4d4f-a3d9-e040-e00a18064a99\", \"type\": \"uuid\"}," +
		"\"titleInfo\": {\"title\": {\"$\": \"Broken\ttitle\nacross lines\"}}" +
		"}}}}}"
	record, err := parseMODS("mods.json", []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"Broken\ttitle\nacross lines"}, record.Titles)
}

func TestParseViaFallback(t *testing.T) {
	// A MODS document unmarshals as the flat schema without error but has no
	// top-level uuid, so Parse must fall through to the MODS parser.
	record, err := Parse("mods.json", []byte(modsDoc))
	require.NoError(t, err)
	assert.Equal(t, testUUID, record.UUID)
}

func TestParseNeitherFormat(t *testing.T) {
	_, err := Parse("junk.json", []byte(`{"neither": "format"}`))
	require.Error(t, err)
	// Both per-format causes survive in the joined error.
	assert.ErrorIs(t, err, ErrMissingField)
	assert.ErrorIs(t, err, ErrUnexpectedStructure)
}
