package storage

import "errors"

var (
	// ErrStorageUnavailable means the record file exists but cannot be read or parsed.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrPersistence means the updated record set could not be written.
	ErrPersistence = errors.New("persistence failure")

	// ErrNotFound means no record has the requested ID.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateID means an insert supplied an ID that is already stored.
	ErrDuplicateID = errors.New("record id already exists")

	// ErrProjection means the record change was saved but the CSV file could
	// not be regenerated. Callers should report it as a warning.
	ErrProjection = errors.New("csv projection not updated")

	// ErrNoExport means no CSV projection has been written yet.
	ErrNoExport = errors.New("csv export not found")
)
