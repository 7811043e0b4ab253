package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/rapportini/internal/model"
	"github.com/Tiliavir/rapportini/internal/timecalc"
)

var (
	listToday  bool
	listWeek   bool
	listMonth  bool
	listClient string
	listSearch string
	listFormat string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List work reports, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show today's reports")
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show this week's reports")
	listCmd.Flags().BoolVar(&listMonth, "month", false, "Show this month's reports")
	listCmd.Flags().StringVar(&listClient, "client", "", "Only show reports for this client (case-insensitive)")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Only show reports whose client or location contains this text (case-insensitive)")
	listCmd.Flags().StringVar(&listFormat, "format", "md", "Output format: md, json, yaml")
	listCmd.MarkFlagsMutuallyExclusive("today", "week", "month")
}

func runList(cmd *cobra.Command, args []string) error {
	now := time.Now()

	records, err := env.store.LoadAll()
	if err != nil {
		fail(2, err)
	}

	var from, to time.Time
	switch {
	case listToday:
		from, to = timecalc.StartOfDay(now), timecalc.EndOfDay(now)
	case listWeek:
		from, to = timecalc.WeekRange(now)
	case listMonth:
		from, to = timecalc.MonthRange(now)
	}

	records = filterRecords(records, from, to, listClient, listSearch)
	model.SortByDateDesc(records)

	return writeRecords(os.Stdout, records, listFormat)
}

// filterRecords keeps records dated within [from, to] whose client matches
// and whose client or location contains search. Zero or empty arguments
// disable the corresponding filter.
func filterRecords(records []model.Record, from, to time.Time, client, search string) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if !from.IsZero() && !timecalc.InRange(r.Date, from, to) {
			continue
		}
		if client != "" && !strings.EqualFold(strings.TrimSpace(r.Client), strings.TrimSpace(client)) {
			continue
		}
		if !matchesSearch(r, search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(r model.Record, search string) bool {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Client), q) ||
		strings.Contains(strings.ToLower(r.Location), q)
}

func writeRecords(w io.Writer, records []model.Record, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	case "md", "":
		printList(w, records)
	default:
		return fmt.Errorf("unknown format %q (want md, json or yaml)", format)
	}
	return nil
}

// printList groups records by date and prints them.
func printList(w io.Writer, records []model.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No reports found.")
		return
	}

	var currentDay string
	for _, r := range records {
		if r.Date != currentDay {
			fmt.Fprintln(w, r.Date)
			currentDay = r.Date
		}

		where := ""
		if r.Location != "" {
			where = " @ " + r.Location
		}
		fmt.Fprintf(w, "  %-20s %8s %10s%s  [%s]\n",
			r.Client, timecalc.FormatHours(r.Hours), formatAmount(r.Amount), where, r.ID)
		if r.Description != "" {
			for _, line := range strings.Split(r.Description, "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
}

func formatAmount(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "?"
	}
	return fmt.Sprintf("%.2f", amount)
}
