package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a work report",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := env.store.Remove(id); err != nil && !warnProjection(err) {
		fail(exitCode(err), err)
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}
