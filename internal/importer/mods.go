// mods.go: parser for the nested MODS bibliographic JSON schema
package importer

import (
	"strings"

	"github.com/antonholmquist/jason"
)

// parseMODS attempts to parse data as a MODS document. The format nests its
// bibliographic fields under card.nyplAPI.response.mods and is wildly
// inconsistent about cardinality: almost every field may appear as a single
// object, an array, or arrays of arrays, so extraction flattens before
// reading. String values may be plain strings or {"$": "..."} text nodes.
func parseMODS(file string, data []byte) (*ParsedCard, error) {
	root, err := jason.NewObjectFromBytes(sanitizeJSON(data))
	if err != nil {
		return nil, malformedJSON(file, err)
	}

	response, err := root.GetObject("card", "nyplAPI", "response")
	if err != nil {
		return nil, unexpectedStructure(file, "card.nyplAPI.response object not found")
	}
	mods, err := response.GetObject("mods")
	if err != nil {
		return nil, unexpectedStructure(file, "response.mods object not found")
	}

	record := &ParsedCard{
		UUID:     extractUUID(mods),
		Titles:   extractTitles(mods),
		Authors:  extractNames(mods),
		Subjects: extractSubjects(mods),
		Dates:    extractDates(mods),
	}
	if record.UUID == "" {
		return nil, missingField(file, "identifier of type uuid")
	}

	extractCaptures(response, record)
	return record, nil
}

// flattenValues recursively flattens arrays (and arrays of arrays) into a
// single slice of leaf values.
func flattenValues(v *jason.Value) []*jason.Value {
	if v == nil {
		return nil
	}
	arr, err := v.Array()
	if err != nil {
		return []*jason.Value{v}
	}
	var leaves []*jason.Value
	for _, elem := range arr {
		leaves = append(leaves, flattenValues(elem)...)
	}
	return leaves
}

// textOf extracts the string content of a value that may be a plain string
// or a {"$": "..."} text node.
func textOf(v *jason.Value) string {
	if v == nil {
		return ""
	}
	if s, err := v.String(); err == nil {
		return strings.TrimSpace(s)
	}
	if obj, err := v.Object(); err == nil {
		if s, err := obj.GetString("$"); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// flattenedField returns the flattened leaves of a named field, or nil if
// the field is absent.
func flattenedField(obj *jason.Object, key string) []*jason.Value {
	v, err := obj.GetValue(key)
	if err != nil {
		return nil
	}
	return flattenValues(v)
}

func extractUUID(mods *jason.Object) string {
	for _, v := range flattenedField(mods, "identifier") {
		obj, err := v.Object()
		if err != nil {
			continue
		}
		idType, err := obj.GetString("type")
		if err != nil || idType != "uuid" {
			continue
		}
		if text := textOf(v); text != "" {
			return text
		}
	}
	return ""
}

func extractTitles(mods *jason.Object) []string {
	var titles []string
	for _, v := range flattenedField(mods, "titleInfo") {
		obj, err := v.Object()
		if err != nil {
			continue
		}
		title, err := obj.GetValue("title")
		if err != nil {
			continue
		}
		for _, leaf := range flattenValues(title) {
			if text := textOf(leaf); text != "" {
				titles = append(titles, text)
			}
		}
	}
	return titles
}

func extractNames(mods *jason.Object) []string {
	var names []string
	for _, v := range flattenedField(mods, "name") {
		obj, err := v.Object()
		if err != nil {
			continue
		}
		namePart, err := obj.GetValue("namePart")
		if err != nil {
			continue
		}
		for _, leaf := range flattenValues(namePart) {
			if text := textOf(leaf); text != "" {
				names = append(names, text)
			}
		}
	}
	return names
}

func extractSubjects(mods *jason.Object) []string {
	var subjects []string
	for _, v := range flattenedField(mods, "subject") {
		obj, err := v.Object()
		if err != nil {
			continue
		}
		// Subject entries split their text across variant children.
		for _, variant := range []string{"geographic", "topic"} {
			child, err := obj.GetValue(variant)
			if err != nil {
				continue
			}
			for _, leaf := range flattenValues(child) {
				if text := textOf(leaf); text != "" {
					subjects = append(subjects, text)
				}
			}
		}
	}
	return subjects
}

func extractDates(mods *jason.Object) []string {
	var dates []string
	for _, v := range flattenedField(mods, "originInfo") {
		obj, err := v.Object()
		if err != nil {
			continue
		}
		created, err := obj.GetValue("dateCreated")
		if err != nil {
			continue
		}
		for _, leaf := range flattenValues(created) {
			text := textOf(leaf)
			if text == "" {
				continue
			}
			// dateCreated may be comma-joined ("1898, 1899").
			for _, part := range strings.Split(text, ",") {
				if trimmed := strings.TrimSpace(part); trimmed != "" {
					dates = append(dates, trimmed)
				}
			}
		}
	}
	return dates
}

// extractCaptures assigns front/back external image ids from the capture
// list. An imageID ending in 'F' is the front of the card, 'B' the back.
func extractCaptures(response *jason.Object, record *ParsedCard) {
	for _, v := range flattenedField(response, "capture") {
		imageID := ""
		if obj, err := v.Object(); err == nil {
			if idValue, err := obj.GetValue("imageID"); err == nil {
				for _, leaf := range flattenValues(idValue) {
					if text := textOf(leaf); text != "" {
						imageID = text
						break
					}
				}
			}
		} else {
			imageID = textOf(v)
		}
		if imageID == "" {
			continue
		}

		switch {
		case strings.HasSuffix(imageID, "F"):
			if record.FrontImageID == "" {
				record.FrontImageID = imageID
			}
		case strings.HasSuffix(imageID, "B"):
			if record.BackImageID == "" {
				record.BackImageID = imageID
			}
		}
	}
}
