package storage

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"CatalogLocalizer/internal/domain"
	"CatalogLocalizer/internal/ports"
)

// outputHeader is the column layout downstream spreadsheets expect.
var outputHeader = []string{"Product Code", "Product Name", "Image URL", "Product URL", "Spanish Description"}

// CSVWriter persists the terminal records to a CSV file. Failed
// localizations get their sentinel prefix at this boundary.
type CSVWriter struct {
	path   string
	logger *slog.Logger
}

var _ ports.RecordWriter = (*CSVWriter)(nil)

// NewCSVWriter points the writer at path.
func NewCSVWriter(path string, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{path: path, logger: logger}
}

// Write truncates the output file and writes one row per record.
func (w *CSVWriter) Write(records []domain.EnhancedProductRecord) error {
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(outputHeader); err != nil {
		_ = file.Close()
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.Code,
			record.Name,
			record.ImageURL,
			record.ProductURL,
			record.Localization.Render(),
		}
		if err := writer.Write(row); err != nil {
			_ = file.Close()
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("flush CSV: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}

	w.info("product data written", "path", w.path, "rows", len(records))

	return nil
}

func (w *CSVWriter) info(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}
