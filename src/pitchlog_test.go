package pitchtune

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPitchLog_emptyPathIsNoop(t *testing.T) {
	l, err := NewPitchLog(false, "")
	require.NoError(t, err)
	assert.NoError(t, l.Write(AlgorithmYIN, 220, 0.9))
	assert.NoError(t, l.Close())
}

func TestPitchLog_singleFileWritesHeaderOnceAndAppendsRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pitch.log")

	l, err := NewPitchLog(false, path)
	require.NoError(t, err)
	require.NoError(t, l.Write(AlgorithmYIN, 220.5, 0.91))
	require.NoError(t, l.Write(AlgorithmYIN, 221.0, 0.88))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pitchLogHeader, string(data)[:len(pitchLogHeader)])

	// Reopening for append must not rewrite the header.
	l2, err := NewPitchLog(false, path)
	require.NoError(t, err)
	require.NoError(t, l2.Write(AlgorithmMPM, 330, 0.5))
	require.NoError(t, l2.Close())

	data2, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data2), pitchLogHeader))
}

func TestPitchLog_dailyDirectoryRejectsExistingFile(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "notadir")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o644))

	_, err := NewPitchLog(true, filePath)
	assert.Error(t, err)
}

func TestPitchLog_dailyDirectoryCreatedIfMissing(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")

	l, err := NewPitchLog(true, logDir)
	require.NoError(t, err)
	require.NoError(t, l.Write(AlgorithmYIN, 100, 0.5))
	require.NoError(t, l.Close())

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}\.log$`, entries[0].Name())
}
