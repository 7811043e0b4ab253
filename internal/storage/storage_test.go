package storage_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/rapportini/internal/model"
	"github.com/Tiliavir/rapportini/internal/storage"
)

func sample() model.Record {
	return model.Record{
		Client:      "Acme",
		Date:        "2024-01-10",
		Location:    "Rome",
		Hours:       3.5,
		Description: "Fix pump",
		Amount:      120.00,
	}
}

func TestLoadAllCreatesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	s := storage.New(dir)

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, records)

	data, err := os.ReadFile(filepath.Join(dir, storage.RecordsFile))
	require.NoError(t, err, "records file not created")
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestInsertAndLoadAll(t *testing.T) {
	fixed := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	s := storage.New(t.TempDir(), storage.WithClock(func() time.Time { return fixed }))

	stored, err := s.Insert(sample())
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)
	assert.True(t, stored.CreatedAt.Equal(fixed), "CreatedAt = %v", stored.CreatedAt)

	records, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, stored.ID, records[0].ID)
	assert.Equal(t, "Acme", records[0].Client)
	assert.Equal(t, 120.0, records[0].Amount)

	csv, err := s.ExportCSV()
	require.NoError(t, err)
	assert.Contains(t, string(csv), "Acme,2024-01-10,Rome,3.5,Fix pump,120.00")
}

func TestInsertKeepsCallerID(t *testing.T) {
	s := storage.New(t.TempDir())

	r := sample()
	r.ID = "fixed-id"
	stored, err := s.Insert(r)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", stored.ID)

	_, err = s.Insert(r)
	assert.ErrorIs(t, err, storage.ErrDuplicateID)

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestInsertGeneratesDistinctIDs(t *testing.T) {
	s := storage.New(t.TempDir())
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		r, err := s.Insert(sample())
		require.NoError(t, err)
		require.False(t, seen[r.ID], "duplicate id %q", r.ID)
		seen[r.ID] = true
	}
}

func TestUpdateReplacesRecord(t *testing.T) {
	s := storage.New(t.TempDir())
	stored, err := s.Insert(sample())
	require.NoError(t, err)

	// Location is left empty: update replaces, it does not merge.
	r2 := model.Record{Client: "Beta", Date: "2024-02-01", Hours: 1, Amount: 40, ID: "ignored"}
	updated, err := s.Update(stored.ID, r2)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, updated.ID)

	records, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	got := records[0]
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, "Beta", got.Client)
	assert.Empty(t, got.Location)
	assert.Equal(t, 40.0, got.Amount)
}

func TestUpdateNotFound(t *testing.T) {
	s := storage.New(t.TempDir())
	_, err := s.Insert(sample())
	require.NoError(t, err)

	_, err = s.Update("missing", sample())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRemove(t *testing.T) {
	s := storage.New(t.TempDir())
	a, err := s.Insert(sample())
	require.NoError(t, err)
	b, err := s.Insert(sample())
	require.NoError(t, err)

	require.NoError(t, s.Remove(a.ID))
	records, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, b.ID, records[0].ID)

	assert.ErrorIs(t, s.Remove("missing"), storage.ErrNotFound)
	records, err = s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRemoveLastRecordDropsExport(t *testing.T) {
	s := storage.New(t.TempDir())
	r, err := s.Insert(sample())
	require.NoError(t, err)

	_, err = s.ExportCSV()
	require.NoError(t, err)

	require.NoError(t, s.Remove(r.ID))
	_, err = s.ExportCSV()
	assert.ErrorIs(t, err, storage.ErrNoExport)
}

func TestExportCSVBeforeAnyMutation(t *testing.T) {
	s := storage.New(t.TempDir())
	_, err := s.LoadAll()
	require.NoError(t, err)

	_, err = s.ExportCSV()
	assert.ErrorIs(t, err, storage.ErrNoExport)
}

func TestImportAppends(t *testing.T) {
	s := storage.New(t.TempDir())
	existing, err := s.Insert(sample())
	require.NoError(t, err)

	imported := []model.Record{
		{ID: model.NewID(), Client: "X", Date: "2024-03-01", Hours: math.NaN(), Amount: 5},
		{ID: model.NewID(), Client: "Y", Date: "2024-03-02", Hours: 1, Amount: math.NaN()},
	}
	n, err := s.Import(imported)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := s.LoadAll()
	require.NoError(t, err, "LoadAll after import with NaN")
	require.Len(t, records, 3)
	assert.Equal(t, existing.ID, records[0].ID)
	assert.True(t, math.IsNaN(records[1].Hours))
	assert.True(t, math.IsNaN(records[2].Amount))
}

func TestCorruptFileKeepsFailing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, storage.RecordsFile)
	corrupt := []byte(`[{"id":"keep-me","client":"Acme","date":"2024-01-10"`)
	require.NoError(t, os.WriteFile(path, corrupt, 0o600))

	s := storage.New(dir)
	for i := 0; i < 2; i++ {
		records, err := s.LoadAll()
		require.ErrorIs(t, err, storage.ErrStorageUnavailable, "LoadAll call %d", i+1)
		assert.Nil(t, records)
	}

	_, err := s.Insert(sample())
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, corrupt, data, "corrupt file must be left as it was")
}

func TestUnreadableStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, storage.RecordsFile), 0o700))

	_, err := storage.New(dir).LoadAll()
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
}

func TestPersistenceFailureLeavesPriorSet(t *testing.T) {
	dir := t.TempDir()
	s := storage.New(dir)
	first, err := s.Insert(sample())
	require.NoError(t, err)

	// A directory in place of the temp file makes the write fail.
	blocker := filepath.Join(dir, storage.RecordsFile+".tmp")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "x"), 0o700))

	_, err = s.Insert(sample())
	require.ErrorIs(t, err, storage.ErrPersistence)

	records, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first.ID, records[0].ID)
}

func TestProjectionFailureKeepsMutation(t *testing.T) {
	dir := t.TempDir()
	s := storage.New(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, storage.ExportFile, "x"), 0o700))

	stored, err := s.Insert(sample())
	require.ErrorIs(t, err, storage.ErrProjection)
	assert.NotEmpty(t, stored.ID, "Insert should still return the stored record")

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestConcurrentInsertsKeepEveryRecord(t *testing.T) {
	s := storage.New(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Insert(sample())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, records, 20)
}
