package bias

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.nytimes.com/section/world", "nytimes"},
		{"http://bbc.co.uk", "bbc"},
		{"nytimes.com", "nytimes"},
		{"www.example.org/page", "example"},
		{"localhost", "localhost"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Domain(c.in), "Domain(%q)", c.in)
	}
}

const refCSV = `url,bias_rating,factual_reporting_rating
https://www.nytimes.com/,2,HIGH
nytimes.com/duplicate,4,VERY HIGH
https://bbc.co.uk,-1,MIXED
https://broken.example,not-a-number,HIGH
https://unrated.example,1,UNKNOWN
`

func TestReadTable(t *testing.T) {
	table, err := ReadTable(strings.NewReader(refCSV))
	require.NoError(t, err)

	// broken and unrated rows are skipped; the duplicate collapses
	assert.Equal(t, 2, table.Len())

	res := table.Resolve([]string{"https://www.nytimes.com/article"})
	require.Len(t, res.Bias, 1)
	assert.Equal(t, 3.0, res.Bias[0])        // mean of 2 and 4
	assert.Equal(t, 0.5, res.Credibility[0]) // mean of HIGH(0) and VERY HIGH(1)
}

func TestResolveTableOrder(t *testing.T) {
	table, err := ReadTable(strings.NewReader(refCSV))
	require.NoError(t, err)

	// input order does not matter; matches come back in table row order
	res := table.Resolve([]string{
		"https://bbc.co.uk/news",
		"https://bbc.co.uk/sport", // same domain, counted once
		"https://nytimes.com/x",
		"https://nosuchsite.example",
	})
	assert.Equal(t, []float64{3, -1}, res.Bias)
	assert.Equal(t, []float64{0.5, -1}, res.Credibility)
}

func TestResolveNoMatches(t *testing.T) {
	table, err := ReadTable(strings.NewReader(refCSV))
	require.NoError(t, err)

	res := table.Resolve([]string{"https://nosuchsite.example"})
	assert.Empty(t, res.Bias)
	assert.Empty(t, res.Credibility)
}

func TestReadTableMissingColumn(t *testing.T) {
	_, err := ReadTable(strings.NewReader("url,bias_rating\na,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "factual_reporting_rating")
}
