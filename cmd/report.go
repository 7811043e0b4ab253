package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/rapportini/internal/model"
	"github.com/Tiliavir/rapportini/internal/report"
	"github.com/Tiliavir/rapportini/internal/timecalc"
)

var (
	reportWeek   bool
	reportMonth  bool
	reportAll    bool
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show hours and amounts per client",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Report for this week (default)")
	reportCmd.Flags().BoolVar(&reportMonth, "month", false, "Report for this month")
	reportCmd.Flags().BoolVar(&reportAll, "all", false, "Report over all records")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json, yaml")
	reportCmd.MarkFlagsMutuallyExclusive("week", "month", "all")
}

// labeledSummary is the machine-readable report.
type labeledSummary struct {
	Period         string `json:"period" yaml:"period"`
	report.Summary `yaml:",inline"`
}

func runReport(cmd *cobra.Command, args []string) error {
	now := time.Now()

	records, err := env.store.LoadAll()
	if err != nil {
		fail(2, err)
	}

	var label string
	switch {
	case reportAll:
		label = "all"
	case reportMonth:
		from, to := timecalc.MonthRange(now)
		records = filterRecords(records, from, to, "", "")
		label = now.Format("2006-01")
	default:
		from, to := timecalc.WeekRange(now)
		records = filterRecords(records, from, to, "", "")
		label = "Week " + timecalc.ISOWeekLabel(now)
	}

	return writeReport(os.Stdout, label, records, reportFormat)
}

func writeReport(w io.Writer, label string, records []model.Record, format string) error {
	sum := report.Summarize(records)

	switch format {
	case "csv":
		fmt.Fprintln(w, "client,records,hours,amount")
		for _, c := range sum.Clients {
			fmt.Fprintf(w, "%s,%d,%s,%s\n", csvField(c.Client), c.Records, c.Hours.String(), c.Amount.StringFixed(2))
		}
	case "json":
		data, err := json.MarshalIndent(labeledSummary{Period: label, Summary: sum}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(labeledSummary{Period: label, Summary: sum}); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	case "md", "":
		fmt.Fprintln(w, label)
		fmt.Fprintln(w, "------------------------------------------------")
		for _, c := range sum.Clients {
			fmt.Fprintf(w, "%-20s%4d %10s %12s\n", c.Client, c.Records,
				timecalc.FormatHours(c.Hours.InexactFloat64()), c.Amount.StringFixed(2))
		}
		fmt.Fprintln(w, "------------------------------------------------")
		fmt.Fprintf(w, "%-24s %10s %12s\n", "Total",
			timecalc.FormatHours(sum.Hours.InexactFloat64()), sum.Amount.StringFixed(2))
		if sum.Invalid > 0 {
			fmt.Fprintf(w, "(%d records with unreadable hours or amount left out)\n", sum.Invalid)
		}
	default:
		return fmt.Errorf("unknown format %q (want md, csv, json or yaml)", format)
	}
	return nil
}

// csvField quotes a client name for the report CSV when it needs it.
func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
