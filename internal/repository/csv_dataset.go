package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"RentWise/internal/domain/models"
	"RentWise/internal/domain/repository"
)

// CSVDatasetSource reads a raw listings CSV with a header row.
type CSVDatasetSource struct {
	path string
}

func NewCSVDatasetSource(path string) *CSVDatasetSource {
	return &CSVDatasetSource{path: path}
}

// ReadRaw keeps every cell as its raw string; the cleaning pipeline decides
// what parses. Short rows leave the trailing columns absent.
func (s *CSVDatasetSource) ReadRaw(ctx context.Context) (models.RawDataset, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return models.RawDataset{}, fmt.Errorf("csv: open %q: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return models.RawDataset{}, models.ErrEmptyDataset
	}
	if err != nil {
		return models.RawDataset{}, fmt.Errorf("csv: read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	ds := models.RawDataset{Columns: header}
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return models.RawDataset{}, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.RawDataset{}, fmt.Errorf("csv: line %d: %w", line, err)
		}
		rec := make(models.RawListingRecord, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// CSVDatasetSink writes the canonical table. Floats use the shortest
// representation that round-trips, so identical tables give identical bytes.
type CSVDatasetSink struct {
	path string
}

func NewCSVDatasetSink(path string) *CSVDatasetSink {
	return &CSVDatasetSink{path: path}
}

func (s *CSVDatasetSink) WriteCanonical(_ context.Context, t models.CanonicalTable) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}
	cells := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			_ = f.Close()
			return fmt.Errorf("csv: row %d has %d values for %d columns", i, len(row), len(t.Columns))
		}
		for j, v := range row {
			cells[j] = formatCell(v)
		}
		if err := w.Write(cells); err != nil {
			_ = f.Close()
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}

var (
	_ repository.DatasetSource = (*CSVDatasetSource)(nil)
	_ repository.DatasetSink   = (*CSVDatasetSink)(nil)
)

// formatCell writes a NaN gap as an empty cell.
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
