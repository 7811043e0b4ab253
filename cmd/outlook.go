package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/rapportini/internal/model"
	"github.com/Tiliavir/rapportini/internal/msgraph"
	"github.com/Tiliavir/rapportini/internal/timecalc"
)

var (
	outlookSyncFrom   string
	outlookSyncTo     string
	outlookSyncDate   string
	outlookSyncToday  bool
	outlookSyncDryRun bool
	outlookSyncClient string
	outlookSyncTZ     string
	outlookSyncRate   float64
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync Outlook calendar events into work reports",
	Args:  cobra.NoArgs,
	RunE:  runOutlookSync,
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncToday, "today", false, "Sync only today (default)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	outlookSyncCmd.Flags().StringVar(&outlookSyncClient, "client", "", "Client name for imported events (default outlook.default_client)")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (default outlook.timezone)")
	outlookSyncCmd.Flags().Float64Var(&outlookSyncRate, "rate", 0, "Hourly rate for amounts (default billing.hourly_rate)")
	outlookCmd.AddCommand(outlookSyncCmd)
}

// syncRange resolves the --date / --from / --to flags to a day range.
func syncRange(now time.Time, date, fromStr, toStr string) (time.Time, time.Time, error) {
	switch {
	case date != "":
		d, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --date value %q: %w", date, err)
		}
		return timecalc.StartOfDay(d), timecalc.EndOfDay(d), nil

	case fromStr != "" || toStr != "":
		if fromStr == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--from is required when --to is specified")
		}
		from, err := time.Parse(model.DateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from value %q: %w", fromStr, err)
		}
		to := now
		if toStr != "" {
			to, err = time.Parse(model.DateLayout, toStr)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid --to value %q: %w", toStr, err)
			}
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", to.Format(model.DateLayout), fromStr)
		}
		return timecalc.StartOfDay(from), timecalc.EndOfDay(to), nil
	}

	return timecalc.StartOfDay(now), timecalc.EndOfDay(now), nil
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	from, to, err := syncRange(time.Now(), outlookSyncDate, outlookSyncFrom, outlookSyncTo)
	if err != nil {
		fail(1, err)
	}

	oc := env.cfg.Outlook
	client := oc.DefaultClient
	if outlookSyncClient != "" {
		client = outlookSyncClient
	}
	timezone := oc.Timezone
	if outlookSyncTZ != "" {
		timezone = outlookSyncTZ
	}
	rate := env.cfg.Billing.HourlyRate
	if cmd.Flags().Changed("rate") {
		rate = outlookSyncRate
	}

	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Printf("Syncing Outlook events (%s → %s)%s...\n",
		from.Format(model.DateLayout), to.Format(model.DateLayout), dryTag)
	fmt.Println()

	ctx := context.Background()

	auth := msgraph.NewAuthenticator(oc.TenantID, oc.ClientID, msgraph.TokenPath(env.cfg.DataDir), os.Stdout)
	tok, err := auth.Token(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
		os.Exit(1)
	}

	graph := msgraph.NewClient(auth.HTTPClient(ctx, tok))

	events, err := graph.GetCalendarView(ctx, from, to, timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch calendar events: %v\n", err)
		os.Exit(1)
	}

	result, err := msgraph.SyncEvents(env.store, events, msgraph.SyncOptions{
		DryRun:     outlookSyncDryRun,
		Client:     client,
		HourlyRate: rate,
		Timezone:   timezone,
		Out:        os.Stdout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync error: %v\n", err)
		os.Exit(2)
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  %d imported\n", result.Imported)
	fmt.Printf("  %d skipped\n", result.Skipped)
	fmt.Printf("  %d updated\n", result.Updated)
	if result.Errors > 0 {
		fmt.Printf("  %d errors\n", result.Errors)
		os.Exit(2)
	}
	return nil
}
