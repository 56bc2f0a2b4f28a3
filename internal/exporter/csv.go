// Package exporter writes the analysis results to disk for the rendering
// collaborator: the premium distribution matrix and lender-share table as
// CSV, and a JSON summary carrying the session statistics.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "mpdcli/internal/errors"
)

// Writer exports report files into a single output directory.
type Writer struct {
	outputDir string
	logger    *slog.Logger
}

// New creates a report writer.
func New(outputDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{outputDir: outputDir, logger: logger}
}

// writeCSV writes one CSV file under the output directory.
func (w *Writer) writeCSV(name string, headers []string, rows [][]string) error {
	path := filepath.Join(w.outputDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create output directory", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", name), err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	defer cw.Flush()

	if err := cw.Write(headers); err != nil {
		return apperrors.NewStorageError("failed to write CSV header", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return apperrors.NewStorageError("failed to write CSV row", err)
		}
	}

	w.logger.Info("wrote report file",
		slog.String("path", path),
		slog.Int("rows", len(rows)))

	return nil
}
