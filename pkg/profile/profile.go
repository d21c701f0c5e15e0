// Package profile derives the per-profile feature record: account metadata
// passthrough, display-name plausibility, location resolution and
// description text features.
package profile

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"

	"smderive/pkg/feature"
	"smderive/pkg/geocode"
	"smderive/pkg/models"
	"smderive/pkg/names"
	"smderive/pkg/textfeat"
	"smderive/pkg/textstats"
)

var reLocationSplit = regexp.MustCompile(`[,/]`)

// Deriver computes profile feature records. All collaborators are injected;
// the model bundle arrives per call because it belongs to the worker, not
// the deriver.
type Deriver struct {
	Names    *names.Store
	Geocoder *geocode.Client
	TextDeps textfeat.Deps
}

// Derive builds the feature record for one profile row. Any error aborts
// the enclosing batch: a profile row is derived completely or not at all.
func (d *Deriver) Derive(ctx context.Context, rec feature.Record, bundle *models.Bundle) (*feature.FeatureRecord, error) {
	meta := feature.New()

	id, ok := rec.Get("ID")
	if !ok {
		return nil, fmt.Errorf("row %d: column %q missing", rec.Index, "ID")
	}
	meta.Set("ID", id)

	createdAt, _ := rec.Get("created_at")
	createdDate, err := feature.NormalizeDate(createdAt)
	if err != nil {
		return nil, fmt.Errorf("row %d: created_at: %w", rec.Index, err)
	}
	meta.Set("created_date", createdDate)

	for _, col := range []string{"followers_count", "following_count", "tweet_count", "listed_count"} {
		n, err := rec.Int(col)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rec.Index, err)
		}
		meta.Set(col, n)
	}

	displayName, _ := rec.Get("display_name")
	if err := d.addDisplayName(ctx, meta, displayName, rec); err != nil {
		return nil, fmt.Errorf("row %d: display name: %w", rec.Index, err)
	}

	d.addLocation(ctx, meta, rec)

	if err := d.addDescription(ctx, meta, rec, bundle); err != nil {
		return nil, fmt.Errorf("row %d: description: %w", rec.Index, err)
	}

	return meta, nil
}

func (d *Deriver) addDisplayName(ctx context.Context, meta *feature.FeatureRecord, displayName string, rec feature.Record) error {
	stripped := textstats.Strip(displayName)

	meta.Set("DN_length", len([]rune(displayName)))
	meta.Set("DN_exclamation_count", strings.Count(stripped, "!"))
	meta.Set("DN_question_mark_count", strings.Count(stripped, "?"))
	meta.Set("DN_hashtag_count", len(textstats.ReHashtag.FindAllString(displayName, -1)))
	meta.Set("DN_emoji_count", textstats.EmojiCount(displayName))

	if stripped == "" {
		return nil
	}

	charCount := textstats.CharCount(stripped)
	capitals := textstats.CountCapitals(stripped)
	meta.Set("DN_character_count", charCount)
	meta.Set("DN_capt_character_count", capitals)
	if charCount == 0 {
		return fmt.Errorf("character count is zero for non-empty name %q", stripped)
	}
	meta.Set("DN_capt_character_prop", round3(float64(capitals)/float64(charCount)))
	meta.Set("DN_letter_count", textstats.LetterCount(stripped))
	meta.Set("DN_word_count", textstats.LexiconCount(stripped))
	meta.Set("DN_unique_word_count", textstats.UniqueWordCount(stripped))

	handle, _ := rec.Get("screen_name")
	meta.Set("DN_handle_similarity", names.HandleSimilarity(displayName, handle))

	parsed := names.Parse(displayName)
	meta.Set("DN_listed_salutation", parsed.Salutation != "")
	check, err := d.Names.CheckName(ctx, parsed)
	if err != nil {
		return err
	}
	meta.Set("DN_first_name", check.FirstReal)
	meta.Set("DN_last_name", check.LastReal)
	return nil
}

// addLocation geocodes each comma- or slash-separated location token. A
// geocoding-path failure degrades the levels-identified field to the error
// text instead of aborting the record.
func (d *Deriver) addLocation(ctx context.Context, meta *feature.FeatureRecord, rec feature.Record) {
	populated := !rec.IsBlank("location")
	meta.Set("LC_field_populated", populated)
	if !populated {
		return
	}
	location, _ := rec.Get("location")

	var tokens []string
	for _, tok := range reLocationSplit.Split(location, -1) {
		if t := strings.TrimSpace(tok); t != "" {
			tokens = append(tokens, t)
		}
	}
	meta.Set("LC_level_count", len(tokens))

	identified := 0
	var types []string
	for _, tok := range tokens {
		loc, err := d.Geocoder.Resolve(ctx, tok)
		if err != nil {
			meta.Set("LC_levels_identified", err.Error())
			return
		}
		if loc != nil {
			identified++
			types = append(types, loc.AddressType)
		}
	}
	meta.Set("LC_levels_identified", identified)
	if types == nil {
		types = []string{}
	}
	meta.Set("LC_level_types", types)
}

func (d *Deriver) addDescription(ctx context.Context, meta *feature.FeatureRecord, rec feature.Record, bundle *models.Bundle) error {
	populated := !rec.IsBlank("description")
	meta.Set("DS_field_populated", populated)
	if !populated {
		return nil
	}
	description, _ := rec.Get("description")

	meta.Set("DS_language", detectLanguage(description))

	vars, err := textfeat.Extract(ctx, description, bundle, nil, d.TextDeps)
	if err != nil {
		return err
	}
	meta.MergePrefixed(vars, "DS_")
	return nil
}

// detectLanguage returns the ISO 639-1 code, degrading to a textual marker
// when detection fails rather than failing the record.
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return "language detection failed"
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
