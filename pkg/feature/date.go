package feature

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are the timestamp formats seen in exported datasets, most
// specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"Mon Jan 02 15:04:05 -0700 2006",
	"2006-01-02",
}

// NormalizeDate parses a timestamp in any known layout and renders the date
// part as YYYY-MM-DD.
func NormalizeDate(value string) (string, error) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized timestamp %q", value)
}
