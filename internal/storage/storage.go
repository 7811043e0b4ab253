package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Tiliavir/rapportini/internal/csvcodec"
	"github.com/Tiliavir/rapportini/internal/model"
)

const (
	// RecordsFile holds the canonical record set.
	RecordsFile = "rapportini.json"
	// ExportFile holds the CSV projection, rewritten after every change.
	ExportFile = "rapportini.csv"
)

// Store persists records as a single JSON array and mirrors them to CSV.
// Every change loads the full set, applies one edit and writes the full set back.
type Store struct {
	dir string
	now func() time.Time
	log *slog.Logger

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for projection messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a Store rooted at dir. Files are created on first access.
func New(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) recordsPath() string { return filepath.Join(s.dir, RecordsFile) }

func (s *Store) exportPath() string { return filepath.Join(s.dir, ExportFile) }

// LoadAll returns every record in storage order. A missing file is created
// empty on first access.
func (s *Store) LoadAll() ([]model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]model.Record, error) {
	path := s.recordsPath()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := s.save([]model.Record{}); err != nil {
			return nil, err
		}
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageUnavailable, path, err)
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		// The file stays where it is: every call fails until it is repaired
		// or moved away, so a bad file is never mistaken for a first run.
		return nil, fmt.Errorf("%w: corrupt JSON in %s (repair or move the file to continue): %v", ErrStorageUnavailable, path, err)
	}
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}

// save atomically replaces the record file with records.
func (s *Store) save(records []model.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshalling JSON: %v", ErrPersistence, err)
	}
	if err := WriteAtomic(s.recordsPath(), data); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// WriteAtomic writes data to a temp file next to path and renames it over path.
func WriteAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// commit saves records and regenerates the CSV projection. A projection
// failure is returned wrapped in ErrProjection after the records are saved.
func (s *Store) commit(records []model.Record) error {
	if err := s.save(records); err != nil {
		return err
	}
	if err := s.project(records); err != nil {
		s.log.Warn("csv projection failed", "path", s.exportPath(), "error", err)
		return fmt.Errorf("%w: %v", ErrProjection, err)
	}
	return nil
}

// project rewrites the CSV file from the full record set. With no records
// there is nothing to export and the file is removed.
func (s *Store) project(records []model.Record) error {
	content := csvcodec.Encode(records)
	if content == "" {
		if err := os.Remove(s.exportPath()); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	if err := WriteAtomic(s.exportPath(), []byte(content)); err != nil {
		return err
	}
	s.log.Debug("csv projection updated", "path", s.exportPath(), "records", len(records))
	return nil
}

func indexOf(records []model.Record, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// newID draws IDs until one is unused in records.
func newID(records []model.Record) string {
	for {
		id := model.NewID()
		if indexOf(records, id) < 0 {
			return id
		}
	}
}

// Insert stores a new record, assigning an ID when r.ID is empty.
func (s *Store) Insert(r model.Record) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return model.Record{}, err
	}
	if r.ID == "" {
		r.ID = newID(records)
	} else if indexOf(records, r.ID) >= 0 {
		return model.Record{}, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
	}
	r.CreatedAt = s.now()
	records = append(records, r)
	if err := s.commit(records); err != nil {
		if errors.Is(err, ErrProjection) {
			return r, err
		}
		return model.Record{}, err
	}
	return r, nil
}

// Update replaces the record with the given ID. The stored record keeps id.
func (s *Store) Update(id string, r model.Record) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return model.Record{}, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.ID = id
	r.CreatedAt = s.now()
	records[i] = r
	if err := s.commit(records); err != nil {
		if errors.Is(err, ErrProjection) {
			return r, err
		}
		return model.Record{}, err
	}
	return r, nil
}

// Remove deletes the record with the given ID.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(records, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	records = append(records[:i], records[i+1:]...)
	return s.commit(records)
}

// Import appends decoded records to the store in a single write. IDs are
// taken as given; they are expected to be freshly generated.
func (s *Store) Import(imported []model.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return 0, err
	}
	records = append(records, imported...)
	if err := s.commit(records); err != nil {
		if errors.Is(err, ErrProjection) {
			return len(imported), err
		}
		return 0, err
	}
	return len(imported), nil
}

// ExportCSV returns the current CSV projection.
func (s *Store) ExportCSV() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.exportPath())
	if os.IsNotExist(err) {
		return nil, ErrNoExport
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageUnavailable, s.exportPath(), err)
	}
	return data, nil
}
