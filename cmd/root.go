package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/rapportini/internal/config"
	"github.com/Tiliavir/rapportini/internal/logging"
	"github.com/Tiliavir/rapportini/internal/storage"
)

var (
	configPath  string
	dataDirFlag string
)

// appEnv is built once before any command runs.
type appEnv struct {
	cfg   config.Config
	store *storage.Store
}

var env appEnv

var rootCmd = &cobra.Command{
	Use:   "rapportini",
	Short: "rapportini – record and export work reports",
	Long: `rapportini keeps work reports (client, date, location, hours, description,
amount) in a JSON file and mirrors them to a CSV file for spreadsheets.
Run "rapportini serve" for the web API or use the commands below directly.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupEnv,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.rapportini/config.json)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Directory holding rapportini.json and rapportini.csv")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(outlookCmd)
}

func setupEnv(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}

	// CLI commands log to stderr so stdout stays clean for exports.
	logger := logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	env = appEnv{
		cfg:   cfg,
		store: storage.New(cfg.DataDir, storage.WithLogger(logger)),
	}
	return nil
}

// fail prints err and exits: 1 for usage errors, 2 for storage errors.
func fail(code int, err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}

// warnProjection reports a CSV projection failure and reports whether err
// was only that.
func warnProjection(err error) bool {
	if errors.Is(err, storage.ErrProjection) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return true
	}
	return false
}

// exitCode picks the exit status for a store error.
func exitCode(err error) int {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrDuplicateID) {
		return 1
	}
	return 2
}
