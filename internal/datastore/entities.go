// entities.go: get-or-create resolution for shared metadata entities
package datastore

import (
	"fmt"

	"github.com/retroview/retroview-go/internal/errors"
)

// Get-or-create semantics: look up by exact text match, create on miss.
// The store mutex serializes the read-check-then-insert window so two
// concurrent imports referencing the same new value cannot both pass the
// "not found" check; the unique index on the text column is the second line
// of defense.

// GetOrCreateTitle resolves text to the single Title entity with that value.
func (ds *DataStore) GetOrCreateTitle(text string) (*Title, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	var title Title
	if err := ds.DB.Where(&Title{Text: text}).FirstOrCreate(&title).Error; err != nil {
		return nil, entityResolutionError("title", text, err)
	}
	return &title, nil
}

// GetOrCreateAuthor resolves text to the single Author entity with that value.
func (ds *DataStore) GetOrCreateAuthor(text string) (*Author, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	var author Author
	if err := ds.DB.Where(&Author{Text: text}).FirstOrCreate(&author).Error; err != nil {
		return nil, entityResolutionError("author", text, err)
	}
	return &author, nil
}

// GetOrCreateSubject resolves text to the single Subject entity with that
// value. Callers are expected to normalize subject text first.
func (ds *DataStore) GetOrCreateSubject(text string) (*Subject, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	var subject Subject
	if err := ds.DB.Where(&Subject{Text: text}).FirstOrCreate(&subject).Error; err != nil {
		return nil, entityResolutionError("subject", text, err)
	}
	return &subject, nil
}

// GetOrCreateDate resolves text to the single Date entity with that value.
func (ds *DataStore) GetOrCreateDate(text string) (*Date, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	var date Date
	if err := ds.DB.Where(&Date{Text: text}).FirstOrCreate(&date).Error; err != nil {
		return nil, entityResolutionError("date", text, err)
	}
	return &date, nil
}

func entityResolutionError(kind, text string, err error) error {
	return errors.New(fmt.Errorf("resolving %s entity: %w", kind, err)).
		Category(errors.CategoryDatabase).
		Context("entity", kind).
		Context("text", text).
		Build()
}
