package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/rapportini/internal/csvcodec"
	"github.com/Tiliavir/rapportini/internal/storage"
)

var (
	exportOutput     string
	exportRegenerate bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the CSV export to stdout or a file",
	Long: `Write the CSV export (UTF-8 with BOM, opens directly in spreadsheets).

By default the CSV file kept next to the records is copied as is. With
--regenerate the CSV is encoded from the current records instead, which
also works when the file was never written or is stale.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
	exportCmd.Flags().BoolVar(&exportRegenerate, "regenerate", false, "Encode from the records instead of copying the CSV file")
}

func runExport(cmd *cobra.Command, args []string) error {
	data, err := exportBytes(env.store, exportRegenerate)
	if errors.Is(err, storage.ErrNoExport) {
		fail(1, fmt.Errorf("nothing to export: %w", err))
	}
	if err != nil {
		fail(2, err)
	}

	if exportOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		fail(2, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", exportOutput)
	return nil
}

// exportBytes returns the CSV export, either the stored projection or a
// fresh encoding of the records.
func exportBytes(store *storage.Store, regenerate bool) ([]byte, error) {
	if !regenerate {
		return store.ExportCSV()
	}
	records, err := store.LoadAll()
	if err != nil {
		return nil, err
	}
	text := csvcodec.Encode(records)
	if text == "" {
		return nil, storage.ErrNoExport
	}
	return []byte(text), nil
}
