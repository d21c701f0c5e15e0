// Package feature defines the input Record and output FeatureRecord types
// shared by the derivers and the batch orchestrator.
package feature

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is one input row, read-only once constructed. Index is the absolute
// row position in the source dataset; Fields maps column name to the raw
// cell value.
type Record struct {
	Index  int
	Fields map[string]string
}

// Get returns the raw value for a column and whether the column exists.
func (r Record) Get(key string) (string, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// blankMarkers are cell values that upstream dataframe exports use for
// missing data.
var blankMarkers = map[string]bool{
	"": true, "none": true, "nan": true, "null": true, "<na>": true, "nat": true,
}

// IsBlank reports whether the column is absent or holds a missing-data marker.
func (r Record) IsBlank(key string) bool {
	v, ok := r.Fields[key]
	if !ok {
		return true
	}
	return blankMarkers[strings.ToLower(strings.TrimSpace(v))]
}

// Int parses the column as an integer. Float-formatted integers ("3.0") are
// accepted because count columns round-trip through dataframes as floats.
func (r Record) Int(key string) (int, error) {
	v, ok := r.Fields[key]
	if !ok {
		return 0, fmt.Errorf("column %q missing", key)
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %q is not a number", key, v)
	}
	return int(f), nil
}

// FeatureRecord is the flat output mapping for one input record. Keys keep
// insertion order so the CSV schema is stable within a batch.
type FeatureRecord struct {
	keys []string
	vals map[string]interface{}
}

// New returns an empty FeatureRecord.
func New() *FeatureRecord {
	return &FeatureRecord{vals: make(map[string]interface{})}
}

// Set stores a value, appending the key on first use.
func (f *FeatureRecord) Set(key string, v interface{}) {
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = v
}

// Get returns the stored value and whether the key is present.
func (f *FeatureRecord) Get(key string) (interface{}, bool) {
	v, ok := f.vals[key]
	return v, ok
}

// Keys returns the feature names in insertion order.
func (f *FeatureRecord) Keys() []string {
	return f.keys
}

// Len returns the number of stored features.
func (f *FeatureRecord) Len() int { return len(f.keys) }

// MergePrefixed copies every feature of src into f with the given key prefix.
func (f *FeatureRecord) MergePrefixed(src *FeatureRecord, prefix string) {
	for _, k := range src.keys {
		f.Set(prefix+k, src.vals[k])
	}
}

// FormatValue renders a feature value the way the upstream exporter did:
// bools as True/False, lists in bracketed literal form, floats without
// trailing zeros.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case string:
		return x
	case []string:
		parts := make([]string, len(x))
		for i, s := range x {
			parts[i] = "'" + s + "'"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = formatFloat(f)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []int:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]float64:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = "'" + k + "': " + formatFloat(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", x)
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
