package timecalc

import (
	"fmt"
	"math"
	"time"

	"github.com/Tiliavir/rapportini/internal/model"
)

// FormatHours formats fractional hours as a human-readable string like "3h 30m" or "45m".
func FormatHours(hours float64) string {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return "?"
	}
	minutes := int64(math.Round(hours * 60))
	h := minutes / 60
	m := minutes % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// RoundHours rounds a duration to hours with two decimals.
func RoundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
	sunday := monday.AddDate(0, 0, 6)
	sunday = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, t.Location())
	return monday, sunday
}

// MonthRange returns the first and last day of the month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first, EndOfDay(last)
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// InRange reports whether a record date (YYYY-MM-DD) falls on a calendar day
// in [from, to]. Dates that do not parse are never in range.
func InRange(date string, from, to time.Time) bool {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return false
	}
	day := d.Format(model.DateLayout)
	return day >= from.Format(model.DateLayout) && day <= to.Format(model.DateLayout)
}
