package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/gostremiocz/internal/models"
)

func openTestDB(t *testing.T, ttl time.Duration) (*BoltDB, *time.Time) {
	t.Helper()
	db, err := NewBolt(filepath.Join(t.TempDir(), "nested", "test.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }
	return db, &now
}

func TestStoreAndGetTitle(t *testing.T) {
	db, _ := openTestDB(t, time.Hour)
	info := models.TitleInfo{CanonicalTitle: "Pelíšky", LocalizedTitle: "Pelíšky", Year: "1999"}

	require.NoError(t, db.StoreTitle("title:tt0167331:movie:0:0", info))

	rec, err := db.GetTitle("title:tt0167331:movie:0:0")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, info, rec.Info)
	assert.Equal(t, "title:tt0167331:movie:0:0", rec.Key)
}

func TestGetTitleMissing(t *testing.T) {
	db, _ := openTestDB(t, time.Hour)
	rec, err := db.GetTitle("title:nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTitleExpiry(t *testing.T) {
	db, now := openTestDB(t, time.Hour)
	require.NoError(t, db.StoreTitle("k", models.TitleInfo{CanonicalTitle: "Show"}))

	*now = now.Add(59 * time.Minute)
	rec, err := db.GetTitle("k")
	require.NoError(t, err)
	assert.NotNil(t, rec)

	*now = now.Add(time.Minute)
	rec, err = db.GetTitle("k")
	require.NoError(t, err)
	assert.Nil(t, rec)

	removed, err := db.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestStoreTitleRejectsEmptyKey(t *testing.T) {
	db, _ := openTestDB(t, time.Hour)
	assert.Error(t, db.StoreTitle("", models.TitleInfo{}))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	db, err := NewBolt(path, 0)
	require.NoError(t, err)
	require.NoError(t, db.StoreTitle("k", models.TitleInfo{CanonicalTitle: "Kept"}))
	require.NoError(t, db.Close())

	db, err = NewBolt(path, 0)
	require.NoError(t, err)
	defer db.Close()

	rec, err := db.GetTitle("k")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Kept", rec.Info.CanonicalTitle)

	removed, err := db.DeleteExpired()
	require.NoError(t, err)
	assert.Zero(t, removed)
}
