// Package bias resolves URLs against a media bias / factual reporting
// reference table keyed by registrable domain.
package bias

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Table is the deduplicated domain-indexed lookup. Build it once at startup
// and treat it as read-only afterwards; lookups are safe for concurrent use.
type Table struct {
	domains []string // table row order, one entry per domain
	entries map[string]Entry
}

// Entry holds the per-domain group means.
type Entry struct {
	Bias        float64
	Credibility float64
}

// credibility rating text to numeric value mapping.
var credibilityScores = map[string]float64{
	"MIXED":     -1,
	"HIGH":      0,
	"VERY HIGH": 1,
}

// Domain extracts the registrable domain's bare label from a URL: the part
// of the effective TLD+1 before the public suffix ("nytimes" from
// "https://www.nytimes.com/section"). Returns "" when no domain is present.
func Domain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	host := raw
	if strings.Contains(raw, "/") || strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err == nil && u.Host != "" {
			host = u.Host
		} else if u2, err2 := url.Parse("https://" + raw); err2 == nil && u2.Host != "" {
			host = u2.Host
		}
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// single-label hosts and unknown suffixes fall back to the first label
		if host == "" {
			return ""
		}
		return strings.SplitN(host, ".", 2)[0]
	}
	return strings.SplitN(etld1, ".", 2)[0]
}

// LoadTable reads the reference CSV (columns: url, bias_rating,
// factual_reporting_rating). Ratings of rows sharing a registrable domain
// are averaged; each domain keeps one entry in first-seen row order.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bias reference: %w", err)
	}
	defer f.Close()
	return ReadTable(f)
}

// ReadTable parses the reference CSV from a reader.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read bias header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, need := range []string{"url", "bias_rating", "factual_reporting_rating"} {
		if _, ok := col[need]; !ok {
			return nil, fmt.Errorf("bias reference missing column %q", need)
		}
	}

	type acc struct {
		biasSum, credSum float64
		n                int
	}
	sums := map[string]*acc{}
	var order []string

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read bias row: %w", err)
		}
		domain := Domain(row[col["url"]])
		if domain == "" {
			continue
		}
		biasV, err := strconv.ParseFloat(strings.TrimSpace(row[col["bias_rating"]]), 64)
		if err != nil {
			continue
		}
		credV, ok := credibilityScores[strings.ToUpper(strings.TrimSpace(row[col["factual_reporting_rating"]]))]
		if !ok {
			continue
		}
		a, seen := sums[domain]
		if !seen {
			a = &acc{}
			sums[domain] = a
			order = append(order, domain)
		}
		a.biasSum += biasV
		a.credSum += credV
		a.n++
	}

	t := &Table{domains: order, entries: make(map[string]Entry, len(order))}
	for _, d := range order {
		a := sums[d]
		t.entries[d] = Entry{
			Bias:        a.biasSum / float64(a.n),
			Credibility: a.credSum / float64(a.n),
		}
	}
	return t, nil
}

// Len returns the number of distinct domains in the table.
func (t *Table) Len() int { return len(t.domains) }

// Result carries the aligned bias and credibility scores for the matched
// subset of the input URLs. Unmatched domains are omitted, so both lists may
// be shorter than the URL list; absence means no reference data, not zero.
type Result struct {
	Bias        []float64
	Credibility []float64
}

// Resolve matches each URL's registrable domain against the table. Matches
// are reported in table order, one per distinct matched domain.
func (t *Table) Resolve(urls []string) Result {
	want := make(map[string]bool, len(urls))
	for _, u := range urls {
		if d := Domain(u); d != "" {
			want[d] = true
		}
	}
	var res Result
	for _, d := range t.domains {
		if !want[d] {
			continue
		}
		e := t.entries[d]
		res.Bias = append(res.Bias, e.Bias)
		res.Credibility = append(res.Credibility, e.Credibility)
	}
	return res
}
