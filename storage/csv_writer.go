package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"immo-map/models"
)

// CSVWriter writes cleaned listing rows to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	header []string
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string, header []string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w: %v", models.ErrWrite, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w: %v", path, models.ErrWrite, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w: %v", models.ErrWrite, err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w, header: header}, nil
}

// WriteRows appends rows in header order. Columns a row lacks are written
// empty.
func (c *CSVWriter) WriteRows(rows []map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	record := make([]string, len(c.header))
	for _, row := range rows {
		for i, h := range c.header {
			record[i] = row[h]
		}
		if err := c.writer.Write(record); err != nil {
			return fmt.Errorf("csv: write row: %w: %v", models.ErrWrite, err)
		}
	}

	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w: %v", models.ErrWrite, err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	return c.file.Close()
}
