package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maltedev/marketplace-scraper/internal/models"
)

// WriteCSV writes the fixed header followed by one row per record. An empty
// record list still produces a header-only file.
func WriteCSV(path string, records []*models.ProductRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}

	if err := writeRecords(csv.NewWriter(file), records); err != nil {
		file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}

	return nil
}

func writeRecords(writer *csv.Writer, records []*models.ProductRecord) error {
	if err := writer.Write(models.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, record := range records {
		if err := writer.Write(record.Row()); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}

	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
