// Package dataset loads the input table of profile or post rows.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"smderive/pkg/feature"
)

// Dataset holds the full input table in row order.
type Dataset struct {
	Columns []string
	Records []feature.Record
}

// Load reads a CSV file with a header row. Every data row becomes a Record
// whose Index is its 0-based position among the data rows.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows; missing cells read as absent columns

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	ds := &Dataset{Columns: header}
	for i := 0; ; i++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row %d: %w", i, err)
		}
		fields := make(map[string]string, len(header))
		for j, col := range header {
			if j < len(row) {
				fields[col] = row[j]
			}
		}
		ds.Records = append(ds.Records, feature.Record{Index: i, Fields: fields})
	}
	return ds, nil
}

// Len returns the number of data rows.
func (d *Dataset) Len() int { return len(d.Records) }

// Slice returns rows [start, end) clamped to the dataset bounds.
func (d *Dataset) Slice(start, end int) []feature.Record {
	if start < 0 {
		start = 0
	}
	if end > len(d.Records) {
		end = len(d.Records)
	}
	if start >= end {
		return nil
	}
	return d.Records[start:end]
}
