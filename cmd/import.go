package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/credenciados/internal/fetcher"
	"github.com/sells-group/credenciados/internal/importer"
	"github.com/sells-group/credenciados/internal/provider"
)

var (
	importFile       string
	importSheet      int
	importShowErrors int
	importFormat     string
	importOutcomes   bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import providers from a CSV or XLSX spreadsheet",
	Long: "Reads a spreadsheet from a local path or an http(s)/ftp URL and reconciles every row " +
		"against the registry: matching providers are updated, new ones inserted, and repeated " +
		"codes within the file skipped.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if !validFormat(importFormat) {
			return eris.Errorf("unsupported output format: %s", importFormat)
		}

		st, err := openStore(ctx, "import")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		table, err := fetcher.Load(ctx, importFile, fetchOptions())
		if err != nil {
			return eris.Wrap(err, "import: read spreadsheet")
		}

		sum, err := runImport(ctx, st, table)
		if err != nil {
			return err
		}
		sum.Log()

		showErrors := importShowErrors
		if showErrors < 0 {
			showErrors = cfg.Import.MaxDisplayErrors
		}
		return writeSummary(os.Stdout, sum, importFormat, showErrors, importOutcomes)
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "spreadsheet path or http(s)/ftp URL (required)")
	importCmd.Flags().IntVar(&importSheet, "sheet", -1, "XLSX sheet index (default import.default_sheet)")
	importCmd.Flags().IntVar(&importShowErrors, "show-errors", -1, "max row errors to print, 0 for all (default import.max_display_errors)")
	importCmd.Flags().StringVar(&importFormat, "format", "text", "output format: text, json or yaml")
	importCmd.Flags().BoolVar(&importOutcomes, "outcomes", false, "include per-row outcomes in json/yaml output")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func fetchOptions() fetcher.Options {
	sheet := importSheet
	if sheet < 0 {
		sheet = cfg.Import.DefaultSheet
	}
	return fetcher.Options{
		Sheet:          sheet,
		Latin1Fallback: cfg.Import.Latin1Fallback,
		HTTP: fetcher.HTTPOptions{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.Fetch.Timeout(),
			RateLimit: rate.Limit(cfg.Fetch.RateLimit),
		},
		FTP: fetcher.FTPOptions{Timeout: cfg.Fetch.Timeout()},
	}
}

// importDescription is the import log description for a table.
func importDescription(table *fetcher.Table) string {
	return fmt.Sprintf("Importação de arquivo: %s (%d registros)", table.Source, len(table.Rows))
}

// runImport runs the engine over table, bracketing it with an import log
// entry. A run that fails leaves its log entry unfinished.
func runImport(ctx context.Context, st provider.Backend, table *fetcher.Table) (*importer.Summary, error) {
	entry := &provider.ImportLog{
		RunID:       uuid.New().String(),
		Description: importDescription(table),
		Source:      table.Source,
		Total:       len(table.Rows),
	}
	if err := st.CreateImportLog(ctx, entry); err != nil {
		return nil, eris.Wrap(err, "import: create import log")
	}

	engine := importer.New(st, importer.WithSource(table.Source), importer.WithRunID(entry.RunID))
	sum, err := engine.Run(ctx, table.Rows)
	if err != nil {
		zap.L().Error("import: run failed", zap.String("run_id", entry.RunID), zap.Error(err))
		return nil, err
	}

	entry.Total = sum.Total
	entry.Inserted = sum.Inserted
	entry.Updated = sum.Updated
	entry.Duplicates = sum.DuplicatesSkipped
	entry.Errors = sum.ErrorCount()
	entry.StoreTotal = sum.StoreTotalAfter
	if err := st.FinishImportLog(ctx, entry); err != nil {
		return nil, eris.Wrap(err, "import: finish import log")
	}
	return sum, nil
}
