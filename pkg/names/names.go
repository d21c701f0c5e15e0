// Package names checks whether a display name looks like a real human name:
// salutation detection, structural first/last split, fuzzy similarity to the
// account handle, and commonality lookups against a names reference store.
package names

import (
	"math"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Parsed is the structural decomposition of a display name.
type Parsed struct {
	Salutation string
	First      string
	Last       string
}

// salutations recognised as a leading title. Comparison is done on the
// lowercased token with trailing dots removed.
var salutations = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "miss": true,
	"prof": true, "professor": true, "sir": true, "dame": true,
	"rev": true, "reverend": true, "fr": true, "father": true,
	"hon": true, "lord": true, "lady": true, "capt": true, "captain": true,
	"col": true, "sgt": true, "mx": true,
}

// Parse splits a display name into salutation, first and last name. The
// last name is empty when only one name token remains after the salutation.
func Parse(displayName string) Parsed {
	tokens := strings.Fields(displayName)
	var p Parsed
	if len(tokens) == 0 {
		return p
	}
	head := strings.ToLower(strings.TrimRight(tokens[0], "."))
	if salutations[head] {
		p.Salutation = tokens[0]
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		return p
	}
	p.First = tokens[0]
	if len(tokens) > 1 {
		p.Last = tokens[len(tokens)-1]
	}
	return p
}

// HandleSimilarity scores how closely the display name matches the account
// handle: both are lowercased, spaces are removed from the name and the "@"
// from the handle, and the normalized Levenshtein similarity is scaled to
// 0-100 and rounded to two decimals.
func HandleSimilarity(displayName, handle string) float64 {
	name := strings.ReplaceAll(strings.ToLower(displayName), " ", "")
	h := strings.ReplaceAll(strings.ToLower(handle), "@", "")
	score := strutil.Similarity(name, h, metrics.NewLevenshtein()) * 100
	return math.Round(score*100) / 100
}
