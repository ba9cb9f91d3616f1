// apply.go: promoting a staged archive import into the live store
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/retroview/retroview-go/internal/errors"
)

// sqliteMagic is the 16-byte header every SQLite database file starts with.
var sqliteMagic = []byte("SQLite format 3\x00")

// HasPendingImport reports whether a staged import is ready to apply.
func HasPendingImport(stagingDir string) bool {
	_, err := os.Stat(filepath.Join(stagingDir, ImportReadySentinel))
	return err == nil
}

// ApplyPendingImport replaces the live store files with the staged ones.
// The staged primary file is verified to look like a real store before
// anything is removed, so a bad archive can never destroy the live store.
// Must be called with the store closed.
func ApplyPendingImport(stagingDir string, target FileSource) error {
	if !HasPendingImport(stagingDir) {
		return errors.Newf("no pending import in %s", stagingDir).
			Category(errors.CategoryNotFound).
			Build()
	}

	primaryName := filepath.Base(target.StorePath())
	stagedPrimary := filepath.Join(stagingDir, primaryName)
	if err := verifyStoreHeader(stagedPrimary); err != nil {
		return err
	}

	// Point of no return: the staged files are known good, so clear the old
	// ones first and then move everything into place.
	livePaths := append([]string{target.StorePath()}, target.SidecarPaths()...)
	for _, path := range livePaths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return applyError("removing old store file", path, err)
		}
	}

	for _, path := range livePaths {
		staged := filepath.Join(stagingDir, filepath.Base(path))
		if _, err := os.Stat(staged); os.IsNotExist(err) {
			continue
		}
		if err := os.Rename(staged, path); err != nil {
			return applyError("moving staged file into place", path, err)
		}
	}

	if err := os.Remove(filepath.Join(stagingDir, ImportReadySentinel)); err != nil {
		return applyError("clearing import sentinel", stagingDir, err)
	}
	logger().Info("Applied pending store import", "staging", stagingDir)
	return nil
}

// DiscardPendingImport removes a staged import without applying it.
func DiscardPendingImport(stagingDir string) error {
	if err := os.RemoveAll(stagingDir); err != nil {
		return applyError("discarding staged import", stagingDir, err)
	}
	return nil
}

// verifyStoreHeader checks that path begins with the SQLite header magic.
func verifyStoreHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.New(fmt.Errorf("%w: cannot open staged primary file: %v", ErrInvalidStore, err)).
			Category(errors.CategoryArchive).
			FileContext(path, 0).
			Build()
	}
	defer f.Close()

	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, sqliteMagic) {
		return errors.New(fmt.Errorf("%w: %s does not begin with the SQLite header", ErrInvalidStore, filepath.Base(path))).
			Category(errors.CategoryArchive).
			FileContext(path, 0).
			Build()
	}
	return nil
}

func applyError(action, path string, err error) error {
	return errors.New(fmt.Errorf("%s: %w", action, err)).
		Category(errors.CategoryArchive).
		FileContext(path, 0).
		Build()
}
