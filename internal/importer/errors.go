// errors.go: the error taxonomy for per-file import failures
package importer

import (
	"fmt"

	"github.com/retroview/retroview-go/internal/errors"
)

// Sentinel errors classifying why a metadata document could not be imported.
// All of them are recoverable at single-file granularity: the batch layer
// records them and moves on.
var (
	// ErrMalformedJSON indicates the file is not valid JSON at all.
	ErrMalformedJSON = errors.NewStd("malformed JSON")

	// ErrMissingField indicates a required field (such as the uuid) was absent.
	ErrMissingField = errors.NewStd("missing required field")

	// ErrUnexpectedStructure indicates a required nested object was absent or
	// of the wrong shape.
	ErrUnexpectedStructure = errors.NewStd("unexpected document structure")

	// ErrProcessing wraps inner failures (store errors and the like) with
	// file context.
	ErrProcessing = errors.NewStd("processing error")
)

func malformedJSON(file string, cause error) error {
	return errors.New(fmt.Errorf("%w: %s: %v", ErrMalformedJSON, file, cause)).
		Category(errors.CategoryFileParsing).
		Context("file", file).
		Build()
}

func missingField(file, field string) error {
	return errors.New(fmt.Errorf("%w: %s in %s", ErrMissingField, field, file)).
		Category(errors.CategoryFileParsing).
		Context("file", file).
		Context("field", field).
		Build()
}

func unexpectedStructure(file, detail string) error {
	return errors.New(fmt.Errorf("%w: %s: %s", ErrUnexpectedStructure, file, detail)).
		Category(errors.CategoryFileParsing).
		Context("file", file).
		Build()
}

func processingError(file string, cause error) error {
	return errors.New(fmt.Errorf("%w: %s: %w", ErrProcessing, file, cause)).
		Category(errors.CategoryImport).
		Context("file", file).
		Build()
}
