package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/rapportini/internal/csvcodec"
	"github.com/Tiliavir/rapportini/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Append the reports of a CSV file",
	Long: `Append the reports of a CSV file written by "rapportini export" or a
spreadsheet. The first line is a header and is ignored. Rows with fewer than
six columns are skipped; every imported row gets a new id.

Fields are split on every comma, so a quoted field containing a comma shifts
the columns that follow it.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	raw, err := readInput(args[0], cmd.InOrStdin())
	if err != nil {
		fail(1, err)
	}

	records, err := decodeImport(raw)
	if err != nil {
		fail(1, err)
	}

	n, err := env.store.Import(records)
	if err != nil && !warnProjection(err) {
		fail(2, err)
	}
	fmt.Printf("Imported %d records\n", n)
	return nil
}

// readInput reads name, or stdin when name is "-".
func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

func decodeImport(raw []byte) ([]model.Record, error) {
	text, err := csvcodec.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding CSV: %w", err)
	}
	records, _, err := csvcodec.Decode(text)
	return records, err
}
