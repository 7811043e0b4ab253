package timecalc_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Tiliavir/rapportini/internal/timecalc"
)

func TestFormatHours(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "0m"},
		{0.75, "45m"},
		{1, "1h 0m"},
		{3.5, "3h 30m"},
		{1.01, "1h 1m"},
		{math.NaN(), "?"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timecalc.FormatHours(tt.hours), "FormatHours(%v)", tt.hours)
	}
}

func TestRoundHours(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want float64
	}{
		{90 * time.Minute, 1.5},
		{20 * time.Minute, 0.33},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timecalc.RoundHours(tt.d), "RoundHours(%v)", tt.d)
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday (week 9).
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	monday, sunday := timecalc.WeekRange(fri)

	assert.True(t, monday.Equal(time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)), "monday = %v", monday)
	assert.True(t, sunday.Equal(time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)), "sunday = %v", sunday)
}

func TestMonthRange(t *testing.T) {
	first, last := timecalc.MonthRange(time.Date(2024, 2, 14, 8, 0, 0, 0, time.UTC))
	assert.True(t, first.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)), "first = %v", first)
	assert.True(t, last.Equal(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)), "last = %v", last)
}

func TestISOWeekLabel(t *testing.T) {
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-W09", timecalc.ISOWeekLabel(fri))
}

func TestInRange(t *testing.T) {
	from := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		date string
		want bool
	}{
		{"2026-02-23", true},
		{"2026-03-01", true},
		{"2026-02-22", false},
		{"2026-03-02", false},
		{"B", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timecalc.InRange(tt.date, from, to), "InRange(%q)", tt.date)
	}
}
