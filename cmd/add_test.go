package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/rapportini/internal/model"
)

func TestBilledAmount(t *testing.T) {
	tests := []struct {
		hours, rate, want float64
	}{
		{3.5, 40, 140},
		{1.333, 30, 39.99},
		{0, 50, 0},
		{2, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, billedAmount(tt.hours, tt.rate), "billedAmount(%v, %v)", tt.hours, tt.rate)
	}
}

func TestRecordFlagsApplyOnlyChanged(t *testing.T) {
	var f recordFlags
	fs := pflag.NewFlagSet("edit", pflag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse([]string{"--hours", "4", "--client", "Beta", "--location", ""}))

	rec := model.Record{ID: "x", Client: "Acme", Date: "2024-01-10", Location: "Rome", Hours: 2, Description: "keep", Amount: 80}
	f.apply(fs, &rec)

	want := model.Record{ID: "x", Client: "Beta", Date: "2024-01-10", Location: "", Hours: 4, Description: "keep", Amount: 80}
	assert.Equal(t, want, rec)
}
