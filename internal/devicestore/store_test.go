package devicestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kismetwireless/kismet-core/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoadNameRoundTrips(t *testing.T) {
	db := openTestDB(t)
	store := New(db)
	key := entity.DeviceKey{PhyHash: 42, Mac: [6]byte{1, 2, 3, 4, 5, 6}}

	require.NoError(t, store.SaveName(key, "kitchen-ap"))

	name, ok := store.LoadName(key)
	require.True(t, ok)
	assert.Equal(t, "kitchen-ap", name)
}

func TestLoadNameMissingReturnsFalse(t *testing.T) {
	db := openTestDB(t)
	store := New(db)
	_, ok := store.LoadName(entity.DeviceKey{PhyHash: 1, Mac: [6]byte{9, 9, 9, 9, 9, 9}})
	assert.False(t, ok)
}

func TestSaveNameOverwritesPreviousValue(t *testing.T) {
	db := openTestDB(t)
	store := New(db)
	key := entity.DeviceKey{PhyHash: 7, Mac: [6]byte{1, 1, 1, 1, 1, 1}}

	require.NoError(t, store.SaveName(key, "first"))
	require.NoError(t, store.SaveName(key, "second"))

	name, ok := store.LoadName(key)
	require.True(t, ok)
	assert.Equal(t, "second", name)
}

func TestSaveAndLoadTagsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := New(db)
	key := entity.DeviceKey{PhyHash: 3, Mac: [6]byte{2, 2, 2, 2, 2, 2}}

	require.NoError(t, store.SaveTag(key, "notes", "guest network"))
	require.NoError(t, store.SaveTag(key, "owner", "alice"))

	tags := store.LoadTags(key)
	require.NotNil(t, tags)
	assert.Equal(t, "guest network", tags["notes"])
	assert.Equal(t, "alice", tags["owner"])
}

func TestLoadTagsEmptyReturnsNil(t *testing.T) {
	db := openTestDB(t)
	store := New(db)
	tags := store.LoadTags(entity.DeviceKey{PhyHash: 99, Mac: [6]byte{0, 0, 0, 0, 0, 1}})
	assert.Nil(t, tags)
}
