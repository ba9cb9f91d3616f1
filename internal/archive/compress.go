// compress.go: the whole-payload compression envelope
package archive

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/retroview/retroview-go/internal/errors"
)

// ErrDecompression indicates the input is not a valid compressed envelope.
// Corrupt input always fails with this error; truncated or garbage output is
// never returned.
var ErrDecompression = errors.NewStd("decompression failed")

// Compress wraps data in the compression envelope. Every input round-trips
// through Decompress, the empty payload included.
func Compress(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.New(fmt.Errorf("initializing compressor: %w", err)).
			Category(errors.CategoryCompression).
			Build()
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress unwraps the compression envelope.
func Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.New(fmt.Errorf("initializing decompressor: %w", err)).
			Category(errors.CategoryCompression).
			Build()
	}
	defer decoder.Close()

	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.New(fmt.Errorf("%w: %v", ErrDecompression, err)).
			Category(errors.CategoryCompression).
			Build()
	}
	return out, nil
}
