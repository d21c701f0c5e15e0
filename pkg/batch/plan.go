package batch

import "fmt"

// Range is one batch's inclusive row span within the dataset.
type Range struct {
	Start int
	End   int
}

// Plan partitions rows [startRow, total) into consecutive batches of
// batchSize; the last batch may be shorter. Row indices are absolute
// dataset positions.
func Plan(total, startRow, batchSize int) []Range {
	if batchSize < 1 || startRow < 0 || startRow >= total {
		return nil
	}
	var ranges []Range
	for start := startRow; start < total; start += batchSize {
		end := start + batchSize - 1
		if end >= total {
			end = total - 1
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}

// FileSuffix encodes the row range into the output file name.
func (r Range) FileSuffix() string {
	return fmt.Sprintf("_rows_%d_to_%d.csv", r.Start, r.End)
}

// String renders the range as it appears in error log lines.
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}
