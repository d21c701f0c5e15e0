// Package post derives the per-post feature record: post metadata,
// engagement metrics, referenced-post sub-metrics and text features.
package post

import (
	"context"
	"fmt"
	"regexp"

	"smderive/pkg/feature"
	"smderive/pkg/models"
	"smderive/pkg/textfeat"
)

// reExpandedURL pulls expanded URLs out of the raw entities blob, which is
// a stringified structure rather than parseable JSON.
var reExpandedURL = regexp.MustCompile(`'expanded_url': '([^']+)'`)

// OutcomeKind tags the result of deriving one post row.
type OutcomeKind int

const (
	// Ok means a feature record was produced.
	Ok OutcomeKind = iota
	// Skipped means the row produced no record by design (missing
	// creation timestamp); not an error and not logged.
	Skipped
	// Failed means derivation errored; the enclosing batch aborts.
	Failed
)

// Outcome is the tagged result of a post derivation, replacing the implicit
// "return nothing" cases the upstream code relied on.
type Outcome struct {
	Kind   OutcomeKind
	Record *feature.FeatureRecord
	Reason string // set when Skipped
	Err    error  // set when Failed
}

func skipped(reason string) Outcome { return Outcome{Kind: Skipped, Reason: reason} }
func failed(err error) Outcome      { return Outcome{Kind: Failed, Err: err} }

// Deriver computes post feature records.
type Deriver struct {
	TextDeps textfeat.Deps
}

// Derive builds the feature record for one post row.
func (d *Deriver) Derive(ctx context.Context, rec feature.Record, bundle *models.Bundle) Outcome {
	if rec.IsBlank("created_at_x") {
		return skipped("missing creation timestamp")
	}

	meta := feature.New()

	id, ok := rec.Get("ID")
	if !ok {
		return failed(fmt.Errorf("row %d: column %q missing", rec.Index, "ID"))
	}
	meta.Set("ID", id)

	referenced := !rec.IsBlank("referenced_tweet_type")
	if referenced {
		t, _ := rec.Get("referenced_tweet_type")
		meta.Set("post_type", t)
	} else {
		meta.Set("post_type", "original")
	}

	createdAt, _ := rec.Get("created_at_x")
	createdDate, err := feature.NormalizeDate(createdAt)
	if err != nil {
		return failed(fmt.Errorf("row %d: created_at_x: %w", rec.Index, err))
	}
	meta.Set("created_date", createdDate)

	source, _ := rec.Get("source_x")
	meta.Set("post_source", source)
	language, _ := rec.Get("language_x")
	meta.Set("post_language", language)

	if err := addEngagement(meta, rec, "_x", ""); err != nil {
		return failed(fmt.Errorf("row %d: %w", rec.Index, err))
	}

	meta.Set("contains_media", !rec.IsBlank("media_keys"))
	meta.Set("contains_geotag", !rec.IsBlank("geo_coordinates"))
	replySettings, _ := rec.Get("reply_settings_x")
	meta.Set("reply_settings", replySettings)

	if referenced {
		addReferencedPost(meta, rec)
	}

	text, ok := rec.Get("tweet_text")
	if !ok {
		return failed(fmt.Errorf("row %d: %w", rec.Index, textfeat.ErrNotText))
	}

	var expandedURLs []string
	if !rec.IsBlank("entities_urls") {
		blob, _ := rec.Get("entities_urls")
		for _, m := range reExpandedURL.FindAllStringSubmatch(blob, -1) {
			expandedURLs = append(expandedURLs, m[1])
		}
		if expandedURLs == nil {
			expandedURLs = []string{}
		}
	}

	vars, err := textfeat.Extract(ctx, text, bundle, expandedURLs, d.TextDeps)
	if err != nil {
		return failed(fmt.Errorf("row %d: %w", rec.Index, err))
	}
	meta.MergePrefixed(vars, "TEXT_")

	return Outcome{Kind: Ok, Record: meta}
}

// addEngagement sets the engagement counts, their sum, and the reply ratio
// for the column suffix (live post "_x", referenced post "_y") under the
// given key prefix.
//
// The reply ratio is truncated to an integer after the zero-denominator
// substitution. The truncation discards the fraction and is preserved for
// compatibility with the published outputs; see DESIGN.md before changing.
func addEngagement(meta *feature.FeatureRecord, rec feature.Record, suffix, prefix string) error {
	counts := make(map[string]int, 4)
	for _, name := range []string{"retweet_count", "reply_count", "like_count", "quote_count"} {
		n, err := rec.Int(name + suffix)
		if err != nil {
			return err
		}
		counts[name] = n
		meta.Set(prefix+name, n)
	}
	meta.Set(prefix+"total_engagement",
		counts["retweet_count"]+counts["reply_count"]+counts["like_count"]+counts["quote_count"])

	ratio := 0.0
	if denom := counts["retweet_count"] + counts["like_count"]; denom != 0 {
		ratio = float64(counts["reply_count"]) / float64(denom)
	}
	meta.Set(prefix+"reply_ratio", int(ratio))
	return nil
}

// addReferencedPost derives the RT_ block. When the referenced-post columns
// are structurally absent the whole block is omitted and the record is
// otherwise unaffected.
func addReferencedPost(meta *feature.FeatureRecord, rec feature.Record) {
	if rec.IsBlank("created_at_y") {
		return
	}
	createdAt, _ := rec.Get("created_at_y")
	createdDate, err := feature.NormalizeDate(createdAt)
	if err != nil {
		return
	}

	block := feature.New()
	block.Set("RT_created_date", createdDate)
	source, _ := rec.Get("source_y")
	block.Set("RT_post_source", source)
	language, _ := rec.Get("language_y")
	block.Set("RT_post_language", language)
	if err := addEngagement(block, rec, "_y", "RT_"); err != nil {
		return
	}
	meta.MergePrefixed(block, "")
}
