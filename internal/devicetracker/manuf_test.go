package devicetracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManufFileParsesAndLooksUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manuf.txt")
	content := "# comment\nDE:AD:BE\tAcme Radios\n\n001122\tOther Corp\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadManufFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Acme Radios", m.Lookup([6]byte{0xDE, 0xAD, 0xBE, 0x00, 0x00, 0x01}))
	assert.Equal(t, "Other Corp", m.Lookup([6]byte{0x00, 0x11, 0x22, 0xAA, 0xBB, 0xCC}))
	assert.Equal(t, "Unknown", m.Lookup([6]byte{0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00}))
}

func TestManufLookupNilIsSafe(t *testing.T) {
	var m *ManufLookup
	assert.Equal(t, "Unknown", m.Lookup([6]byte{1, 2, 3, 4, 5, 6}))
}
