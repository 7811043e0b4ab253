package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/rapportini/internal/model"
	"github.com/Tiliavir/rapportini/internal/storage"
)

var editFlags recordFlags

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a work report",
	Long: `Change fields of a work report. Only the flags given are changed; the
record is then stored as a whole and its creation time refreshed.`,
	Example: `  rapportini edit 3f0c... --hours 4 --amount 160`,
	Args:    cobra.ExactArgs(1),
	RunE:    runEdit,
}

func init() {
	editFlags.register(editCmd.Flags())
}

func runEdit(cmd *cobra.Command, args []string) error {
	id := args[0]

	records, err := env.store.LoadAll()
	if err != nil {
		fail(2, err)
	}
	rec, ok := findRecord(records, id)
	if !ok {
		fail(1, fmt.Errorf("%w: %s", storage.ErrNotFound, id))
	}

	editFlags.apply(cmd.Flags(), &rec)
	if err := rec.Validate(); err != nil {
		fail(1, err)
	}

	stored, err := env.store.Update(id, rec)
	if err != nil && !warnProjection(err) {
		fail(exitCode(err), err)
	}
	fmt.Printf("Updated %s: %s on %s, %s h, %.2f\n",
		stored.ID, stored.Client, stored.Date, formatNumber(stored.Hours), stored.Amount)
	return nil
}

func findRecord(records []model.Record, id string) (model.Record, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return model.Record{}, false
}
