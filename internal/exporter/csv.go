package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// utf8BOM is prepended to CSV output so Excel recognizes the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes export tables as CSV.
type CSVWriter struct {
	includeBOM bool
}

// NewCSVWriter creates a CSV writer. includeBOM controls the UTF-8 BOM
// prefix; downloads served to browsers want it, piped output may not.
func NewCSVWriter(includeBOM bool) *CSVWriter {
	return &CSVWriter{includeBOM: includeBOM}
}

// WriteTable writes a table to w, header first.
func (c *CSVWriter) WriteTable(w io.Writer, table Table) error {
	if c.includeBOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if len(table.Header) > 0 {
		if err := writer.Write(table.Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	record := make([]string, 0, len(table.Header))
	for i, row := range table.Rows {
		record = record[:0]
		for _, cell := range row {
			record = append(record, formatCell(cell))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteTableFile writes a table to dir/<key>.csv, creating the
// directory if needed, and returns the written path.
func (c *CSVWriter) WriteTableFile(dir string, table Table) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, table.Key+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := c.WriteTable(file, table); err != nil {
		return "", err
	}

	slog.Info("wrote CSV export",
		slog.String("table", table.Key),
		slog.String("path", path),
		slog.Int("row_count", len(table.Rows)))

	return path, nil
}

// StreamWriter writes one CSV row at a time for large exports.
type StreamWriter struct {
	writer *csv.Writer
	closer io.Closer
}

// CreateStreamWriter opens a streaming CSV writer on w. The header and
// BOM are written immediately.
func (c *CSVWriter) CreateStreamWriter(w io.Writer, header []string) (*StreamWriter, error) {
	if c.includeBOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(header) > 0 {
		if err := writer.Write(header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	closer, _ := w.(io.Closer)
	return &StreamWriter{writer: writer, closer: closer}, nil
}

// WriteRow formats and writes a single row.
func (s *StreamWriter) WriteRow(row []any) error {
	record := make([]string, len(row))
	for i, cell := range row {
		record[i] = formatCell(cell)
	}
	return s.writer.Write(record)
}

// Close flushes the stream and closes the destination when it can be
// closed.
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		if s.closer != nil {
			s.closer.Close()
		}
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
