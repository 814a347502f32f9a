// importctl is an operator tool for running legacy JSON exports through the
// import pipeline without going through the HTTP API. The check subcommand
// dry-runs a file and reports what would fail; import writes to the database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/username/duitku/backend/src/database"
	"github.com/username/duitku/backend/src/legacyimport"
	"github.com/username/duitku/backend/src/logger"
	"github.com/username/duitku/backend/src/storage"
)

var (
	dbPath   string
	userID   int64
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "importctl",
	Short: "Run legacy finance exports through the import pipeline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <export.json>",
	Short: "Dry-run an export file and report rows that would fail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(args[0])
		if err != nil {
			return err
		}

		failed := 0
		for i, record := range records {
			if err := checkRecord(record); err != nil {
				failed++
				fmt.Printf("row %d: %v\n", i, err)
			}
		}
		fmt.Printf("checked %d records: %d ok, %d would fail\n", len(records), len(records)-failed, failed)
		if failed > 0 {
			os.Exit(1)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <export.json>",
	Short: "Import an export file for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID <= 0 {
			return fmt.Errorf("--user is required and must be positive")
		}

		records, err := loadRecords(args[0])
		if err != nil {
			return err
		}

		database.InitDB(dbPath)
		defer database.DB.Close()

		store := storage.NewSQLStore(database.DB)
		importer := legacyimport.NewImporter(store, logger.L)

		result := importer.ImportBatch(context.Background(), userID, records)

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Println(string(out))

		if result.Failed > 0 {
			os.Exit(1)
		}
		return nil
	},
}

// checkRecord runs the parse stages without touching storage.
func checkRecord(record legacyimport.LegacyTransaction) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if _, err := legacyimport.ParseDate(record.Tanggal); err != nil {
		return err
	}
	if _, err := legacyimport.ParseType(record.Tipe); err != nil {
		return err
	}
	if _, err := legacyimport.ParseAmount(record.Jumlah); err != nil {
		return err
	}
	if _, err := legacyimport.LookupCategory(record.Kategori); err != nil {
		return err
	}
	return nil
}

func loadRecords(path string) ([]legacyimport.LegacyTransaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var records []legacyimport.LegacyTransaction
	if err := json.Unmarshal(data, &records); err != nil {
		// Some exports wrap the array in a "records" object.
		var wrapper struct {
			Records []legacyimport.LegacyTransaction `json:"records"`
		}
		if werr := json.Unmarshal(data, &wrapper); werr != nil || wrapper.Records == nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		records = wrapper.Records
	}
	return records, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	importCmd.Flags().StringVar(&dbPath, "db", "./duitku.db", "path to the sqlite database")
	importCmd.Flags().Int64Var(&userID, "user", 0, "id of the user to import for")

	rootCmd.AddCommand(checkCmd, importCmd)

	cobra.OnInitialize(func() {
		logger.InitLogger(logLevel)
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
