// Package archive snapshots the raw store files into a portable container
// and restores them through a staged, sentinel-guarded import. It also
// carries the compression envelope and the JSON full-library export.
package archive

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/retroview/retroview-go/internal/errors"
	"github.com/retroview/retroview-go/internal/logging"
)

// MagicHeader identifies a store archive. Validation fails closed: a
// container without it is rejected before any record is read.
const MagicHeader = "RVSTORE1"

// ImportReadySentinel marks a staging directory whose contents are complete
// and safe to apply.
const ImportReadySentinel = "import-ready"

// maxNameLen caps the declared filename length so a corrupt container
// cannot force a giant allocation.
const maxNameLen = 4096

// logger resolves the service logger per call so handlers configured after
// package load are picked up.
func logger() *slog.Logger {
	return logging.ForService("archive")
}

var (
	ErrInvalidArchive = errors.NewStd("invalid archive")
	ErrInvalidStore   = errors.NewStd("staged file is not a valid store")
)

// Container records are [uint32 nameLen][name][uint64 payloadLen][payload],
// integers little-endian so an archive written on one platform restores on
// any other.
var byteOrder = binary.LittleEndian

// FileSource names the raw files a snapshot covers: the primary store file
// plus whatever sidecars currently exist.
type FileSource interface {
	StorePath() string
	SidecarPaths() []string
}

// Create writes an archive of the store's raw files to w. Sidecar files
// that do not exist at snapshot time are omitted, not zero-filled.
func Create(w io.Writer, source FileSource) error {
	if _, err := w.Write([]byte(MagicHeader)); err != nil {
		return writeError(err)
	}

	files := append([]string{source.StorePath()}, source.SidecarPaths()...)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.New(fmt.Errorf("reading store file: %w", err)).
				Category(errors.CategoryArchive).
				FileContext(path, 0).
				Build()
		}
		if err := writeRecord(w, filepath.Base(path), data); err != nil {
			return err
		}
		logger().Debug("Archived store file", "file", filepath.Base(path), "bytes", len(data))
	}
	return nil
}

// CreateFile writes an archive to path via a temp file and rename.
func CreateFile(path string, source FileSource) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.New(fmt.Errorf("creating archive file: %w", err)).
			Category(errors.CategoryArchive).
			FileContext(path, 0).
			Build()
	}
	if err := Create(f, source); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return writeError(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return writeError(err)
	}
	return nil
}

func writeRecord(w io.Writer, name string, payload []byte) error {
	if err := binary.Write(w, byteOrder, uint32(len(name))); err != nil {
		return writeError(err)
	}
	if _, err := w.Write([]byte(name)); err != nil {
		return writeError(err)
	}
	if err := binary.Write(w, byteOrder, uint64(len(payload))); err != nil {
		return writeError(err)
	}
	if _, err := w.Write(payload); err != nil {
		return writeError(err)
	}
	return nil
}

func writeError(err error) error {
	return errors.New(fmt.Errorf("writing archive: %w", err)).
		Category(errors.CategoryArchive).
		Build()
}

// Record is one named payload extracted from a container.
type Record struct {
	Name    string
	Payload []byte
}

// Extract validates the magic header and reads every record. A declared
// length that exceeds the remaining bytes is a parse failure, never an
// out-of-bounds read.
func Extract(data []byte) ([]Record, error) {
	if len(data) < len(MagicHeader) || string(data[:len(MagicHeader)]) != MagicHeader {
		return nil, errors.New(fmt.Errorf("%w: missing or mismatched magic header", ErrInvalidArchive)).
			Category(errors.CategoryArchive).
			Build()
	}
	rest := data[len(MagicHeader):]

	var records []Record
	for len(rest) > 0 {
		if len(rest) < 4 {
			return nil, truncatedError("filename length")
		}
		nameLen := byteOrder.Uint32(rest)
		rest = rest[4:]
		if nameLen == 0 || nameLen > maxNameLen || uint64(nameLen) > uint64(len(rest)) {
			return nil, truncatedError("filename")
		}
		name := string(rest[:nameLen])
		rest = rest[nameLen:]

		if len(rest) < 8 {
			return nil, truncatedError("payload length")
		}
		payloadLen := byteOrder.Uint64(rest)
		rest = rest[8:]
		if payloadLen > uint64(len(rest)) {
			return nil, truncatedError("payload")
		}
		payload := make([]byte, payloadLen)
		copy(payload, rest[:payloadLen])
		rest = rest[payloadLen:]

		records = append(records, Record{Name: name, Payload: payload})
	}
	return records, nil
}

func truncatedError(what string) error {
	return errors.New(fmt.Errorf("%w: truncated record (%s exceeds remaining bytes)", ErrInvalidArchive, what)).
		Category(errors.CategoryArchive).
		Build()
}

// ImportArchive extracts a container into the staging directory and drops
// the import-ready sentinel. Nothing touches the live store files here;
// ApplyPendingImport does that on the next safe occasion.
func ImportArchive(archivePath, stagingDir string) error {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return errors.New(fmt.Errorf("reading archive: %w", err)).
			Category(errors.CategoryArchive).
			FileContext(archivePath, 0).
			Build()
	}

	records, err := Extract(data)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.New(fmt.Errorf("%w: archive holds no files", ErrInvalidArchive)).
			Category(errors.CategoryArchive).
			Build()
	}

	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return stagingError(err)
	}
	for _, record := range records {
		// Record names are basenames by construction; reject anything that
		// would escape the staging directory.
		if record.Name != filepath.Base(record.Name) {
			return errors.New(fmt.Errorf("%w: unsafe record name %q", ErrInvalidArchive, record.Name)).
				Category(errors.CategoryArchive).
				Build()
		}
		target := filepath.Join(stagingDir, record.Name)
		if err := os.WriteFile(target, record.Payload, 0o644); err != nil {
			return stagingError(err)
		}
	}

	if err := os.WriteFile(filepath.Join(stagingDir, ImportReadySentinel), nil, 0o644); err != nil {
		return stagingError(err)
	}
	logger().Info("Archive staged for import", "archive", archivePath, "files", len(records))
	return nil
}

func stagingError(err error) error {
	return errors.New(fmt.Errorf("staging archive contents: %w", err)).
		Category(errors.CategoryArchive).
		Build()
}
