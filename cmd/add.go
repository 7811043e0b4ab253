package cmd

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Tiliavir/rapportini/internal/model"
)

// recordFlags holds the field flags shared by add and edit.
type recordFlags struct {
	client      string
	date        string
	location    string
	hours       float64
	description string
	amount      float64
}

func (f *recordFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.client, "client", "", "Client name")
	fs.StringVar(&f.date, "date", "", "Date of the work (YYYY-MM-DD, default today)")
	fs.StringVar(&f.location, "location", "", "Where the work took place")
	fs.Float64Var(&f.hours, "hours", 0, "Hours worked")
	fs.StringVar(&f.description, "description", "", "What was done")
	fs.Float64Var(&f.amount, "amount", 0, "Amount billed (default hours × billing.hourly_rate)")
}

// apply copies every flag the user set onto r.
func (f *recordFlags) apply(fs *pflag.FlagSet, r *model.Record) {
	if fs.Changed("client") {
		r.Client = f.client
	}
	if fs.Changed("date") {
		r.Date = f.date
	}
	if fs.Changed("location") {
		r.Location = f.location
	}
	if fs.Changed("hours") {
		r.Hours = f.hours
	}
	if fs.Changed("description") {
		r.Description = f.description
	}
	if fs.Changed("amount") {
		r.Amount = f.amount
	}
}

// billedAmount returns hours × rate rounded to cents.
func billedAmount(hours, rate float64) float64 {
	return math.Round(hours*rate*100) / 100
}

var (
	addFlags recordFlags
	addID    string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a work report",
	Example: `  rapportini add --client Acme --hours 3.5 --location Rome --description "Fix pump"
  rapportini add --client Acme --date 2024-01-10 --hours 2 --amount 80`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addFlags.register(addCmd.Flags())
	addCmd.Flags().StringVar(&addID, "id", "", "Explicit record id (default generated)")
	_ = addCmd.MarkFlagRequired("client")
}

func runAdd(cmd *cobra.Command, args []string) error {
	rec := model.Record{
		ID:   addID,
		Date: time.Now().Format(model.DateLayout),
	}
	fs := cmd.Flags()
	addFlags.apply(fs, &rec)
	if !fs.Changed("amount") && env.cfg.Billing.HourlyRate > 0 {
		rec.Amount = billedAmount(rec.Hours, env.cfg.Billing.HourlyRate)
	}

	if err := rec.Validate(); err != nil {
		fail(1, err)
	}

	stored, err := env.store.Insert(rec)
	if err != nil && !warnProjection(err) {
		fail(exitCode(err), err)
	}

	fmt.Printf("Added %s: %s on %s, %s h, %.2f\n",
		stored.ID, stored.Client, stored.Date, formatNumber(stored.Hours), stored.Amount)
	return nil
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%g", f)
}
