package feature

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes the records as one CSV document. The header is the union
// of every record's keys in first-seen order; a record missing a column
// renders an empty cell. Column sets may differ between records because some
// fields are conditionally derived.
func WriteCSV(w io.Writer, records []*FeatureRecord) error {
	var header []string
	seen := make(map[string]bool)
	for _, rec := range records {
		for _, k := range rec.Keys() {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, rec := range records {
		for i, k := range header {
			if v, ok := rec.Get(k); ok {
				row[i] = FormatValue(v)
			} else {
				row[i] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
