package msgraph

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Tiliavir/rapportini/internal/model"
	"github.com/Tiliavir/rapportini/internal/storage"
	"github.com/Tiliavir/rapportini/internal/timecalc"
)

// RecordStore is the part of the record store a sync needs.
type RecordStore interface {
	LoadAll() ([]model.Record, error)
	Insert(r model.Record) (model.Record, error)
	Update(id string, r model.Record) (model.Record, error)
}

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	DryRun     bool
	Client     string
	HourlyRate float64
	Timezone   string
	// Out receives one progress line per event. Nil discards progress.
	Out io.Writer
}

// parseGraphTime parses a Graph API dateTime string in the given timezone.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt, tz string) (time.Time, error) {
	// Try RFC3339 first (includes timezone offset).
	if t, err := time.Parse(time.RFC3339, dt); err == nil {
		return t, nil
	}
	// Try RFC3339Nano.
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t, nil
	}

	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	// Graph returns fractional seconds: "2026-02-27T09:00:00.0000000"
	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// buildDescription combines the subject and body preview.
func buildDescription(event CalendarEvent) string {
	parts := []string{}
	if event.Subject != "" {
		parts = append(parts, event.Subject)
	}
	if event.BodyPreview != "" {
		parts = append(parts, event.BodyPreview)
	}
	return strings.Join(parts, "\n")
}

// shouldSkip returns true if the event should not be imported.
func shouldSkip(event CalendarEvent) bool {
	if event.IsCancelled {
		return true
	}
	if event.IsAllDay {
		return true
	}
	if event.Sensitivity == "private" {
		return true
	}
	if event.ShowAs == "free" {
		return true
	}
	if event.Start.DateTime == "" || event.End.DateTime == "" {
		return true
	}
	return false
}

// MapEventToRecord converts a Graph CalendarEvent into a work report.
// The amount is hours times hourlyRate, rounded to cents.
func MapEventToRecord(event CalendarEvent, timezone, client string, hourlyRate float64) (model.Record, error) {
	startTime, err := parseGraphTime(event.Start.DateTime, timezone)
	if err != nil {
		return model.Record{}, fmt.Errorf("parsing start time: %w", err)
	}
	endTime, err := parseGraphTime(event.End.DateTime, timezone)
	if err != nil {
		return model.Record{}, fmt.Errorf("parsing end time: %w", err)
	}
	if endTime.Before(startTime) {
		return model.Record{}, fmt.Errorf("event ends before it starts")
	}

	hours := timecalc.RoundHours(endTime.Sub(startTime))
	return model.Record{
		ExternalID:  event.ID,
		Client:      client,
		Date:        startTime.Format(model.DateLayout),
		Location:    event.Location.DisplayName,
		Hours:       hours,
		Description: buildDescription(event),
		Amount:      math.Round(hours*hourlyRate*100) / 100,
	}, nil
}

// findByExternalID searches loaded records for one with the given external id.
func findByExternalID(records []model.Record, externalID string) *model.Record {
	for i := range records {
		if records[i].ExternalID == externalID {
			return &records[i]
		}
	}
	return nil
}

// sameEventFields reports whether two records agree on every field the
// calendar event determines. Client and amount come from configuration and
// may have been edited by hand, so they are not compared.
func sameEventFields(a, b model.Record) bool {
	return a.Date == b.Date &&
		a.Location == b.Location &&
		a.Hours == b.Hours &&
		a.Description == b.Description
}

// mergeSynced applies the event fields of synced onto stored. The stored
// client is kept, and so is the stored amount unless the hours changed.
func mergeSynced(stored, synced model.Record) model.Record {
	merged := synced
	merged.Client = stored.Client
	if synced.Hours == stored.Hours {
		merged.Amount = stored.Amount
	}
	return merged
}

// SyncEvents upserts Graph events into the store, keyed by event id.
// Unchanged events are skipped, changed ones are updated in place and the
// rest are inserted as new records.
func SyncEvents(store RecordStore, events []CalendarEvent, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	existing, err := store.LoadAll()
	if err != nil {
		return result, err
	}

	for _, event := range events {
		if shouldSkip(event) {
			continue
		}

		record, err := MapEventToRecord(event, opts.Timezone, opts.Client, opts.HourlyRate)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		hours := fmt.Sprintf(" (%s)", timecalc.FormatHours(record.Hours))

		found := findByExternalID(existing, event.ID)
		if found != nil {
			if sameEventFields(*found, record) {
				fmt.Fprintf(out, "  – Skipped:  %s (already exists)\n", event.Subject)
				result.Skipped++
				continue
			}
			record = mergeSynced(*found, record)
			if !opts.DryRun {
				updated, err := store.Update(found.ID, record)
				if err != nil && !errors.Is(err, storage.ErrProjection) {
					fmt.Fprintf(out, "  ! Error updating %q: %v\n", event.Subject, err)
					result.Errors++
					continue
				}
				*found = updated
			}
			fmt.Fprintf(out, "  ↑ Updated:  %s%s\n", event.Subject, hours)
			result.Updated++
			continue
		}

		if !opts.DryRun {
			inserted, err := store.Insert(record)
			if err != nil && !errors.Is(err, storage.ErrProjection) {
				fmt.Fprintf(out, "  ! Error saving %q: %v\n", event.Subject, err)
				result.Errors++
				continue
			}
			existing = append(existing, inserted)
		}
		fmt.Fprintf(out, "  ✓ Imported: %s%s\n", event.Subject, hours)
		result.Imported++
	}

	return result, nil
}
