package archive

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSource is a FileSource over files in a temp directory.
type testSource struct {
	primary  string
	sidecars []string
}

func (s *testSource) StorePath() string { return s.primary }
func (s *testSource) SidecarPaths() []string { return s.sidecars }

// newTestSource lays out a primary store file and both sidecars.
func newTestSource(t *testing.T, withSidecars bool) *testSource {
	t.Helper()
	dir := t.TempDir()
	primary := filepath.Join(dir, "library.db")
	content := append([]byte("SQLite format 3\x00"), []byte("primary-content")...)
	require.NoError(t, os.WriteFile(primary, content, 0o644))

	source := &testSource{
		primary:  primary,
		sidecars: []string{primary + "-wal", primary + "-shm"},
	}
	if withSidecars {
		require.NoError(t, os.WriteFile(source.sidecars[0], []byte("wal-content"), 0o644))
		require.NoError(t, os.WriteFile(source.sidecars[1], []byte("shm-content"), 0o644))
	}
	return source
}

func TestCreateExtractRoundTrip(t *testing.T) {
	source := newTestSource(t, true)

	var buf bytes.Buffer
	require.NoError(t, Create(&buf, source))

	records, err := Extract(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "library.db", records[0].Name)
	assert.Equal(t, append([]byte("SQLite format 3\x00"), []byte("primary-content")...), records[0].Payload)
	assert.Equal(t, "library.db-wal", records[1].Name)
	assert.Equal(t, []byte("wal-content"), records[1].Payload)
	assert.Equal(t, "library.db-shm", records[2].Name)
	assert.Equal(t, []byte("shm-content"), records[2].Payload)
}

func TestCreateOmitsMissingSidecars(t *testing.T) {
	source := newTestSource(t, false)

	var buf bytes.Buffer
	require.NoError(t, Create(&buf, source))

	records, err := Extract(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "library.db", records[0].Name)
}

func TestExtractRejectsBadMagic(t *testing.T) {
	source := newTestSource(t, true)
	var buf bytes.Buffer
	require.NoError(t, Create(&buf, source))

	data := buf.Bytes()
	data[0] = 'X'
	_, err := Extract(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestExtractRejectsShortInput(t *testing.T) {
	_, err := Extract([]byte("RV"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestExtractRejectsOversizedPayloadLength(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(MagicHeader)
	binary.Write(&buf, byteOrder, uint32(4))
	buf.WriteString("file")
	// Declared payload far exceeds what follows.
	binary.Write(&buf, byteOrder, uint64(1<<40))
	buf.WriteString("tiny")

	_, err := Extract(buf.Bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestExtractRejectsOversizedNameLength(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(MagicHeader)
	binary.Write(&buf, byteOrder, uint32(1<<31))

	_, err := Extract(buf.Bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestExtractTruncatedRecord(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(MagicHeader)
	binary.Write(&buf, byteOrder, uint32(4))
	buf.WriteString("fi") // name cut short

	_, err := Extract(buf.Bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestExtractEmptyArchive(t *testing.T) {
	records, err := Extract([]byte(MagicHeader))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestImportArchiveStagesFiles(t *testing.T) {
	source := newTestSource(t, true)
	archivePath := filepath.Join(t.TempDir(), "snapshot.rvarchive")
	require.NoError(t, CreateFile(archivePath, source))

	staging := filepath.Join(t.TempDir(), "pending-import")
	require.NoError(t, ImportArchive(archivePath, staging))

	data, err := os.ReadFile(filepath.Join(staging, "library.db"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, sqliteMagic))
	assert.FileExists(t, filepath.Join(staging, "library.db-wal"))
	assert.FileExists(t, filepath.Join(staging, ImportReadySentinel))
	assert.True(t, HasPendingImport(staging))
}

func TestImportArchiveBadMagicLeavesNoStaging(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "bad.rvarchive")
	require.NoError(t, os.WriteFile(archivePath, []byte("NOTMAGIC"), 0o644))

	staging := filepath.Join(t.TempDir(), "pending-import")
	err := ImportArchive(archivePath, staging)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArchive)
	assert.NoDirExists(t, staging)
}

func TestImportArchiveRejectsUnsafeNames(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(MagicHeader)
	name := "../escape.db"
	binary.Write(&buf, byteOrder, uint32(len(name)))
	buf.WriteString(name)
	binary.Write(&buf, byteOrder, uint64(1))
	buf.WriteByte('x')

	archivePath := filepath.Join(t.TempDir(), "evil.rvarchive")
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0o644))

	err := ImportArchive(archivePath, filepath.Join(t.TempDir(), "staging"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArchive)
}
