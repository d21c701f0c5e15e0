// Package textfeat derives the flat text feature set shared by post bodies
// and profile descriptions: surface counts, readability, grammaticality,
// bias-matched URLs, and the seven-model predictions.
package textfeat

import (
	"context"
	"errors"
	"fmt"
	"math"

	"smderive/pkg/bias"
	"smderive/pkg/feature"
	"smderive/pkg/grammar"
	"smderive/pkg/models"
	"smderive/pkg/textstats"
)

// ErrNotText is returned when the record has no textual value to extract
// features from. It is deliberately loud: the enclosing batch fails.
var ErrNotText = errors.New("text feature input is not textual")

// Deps are the extractor's external collaborators. Bias may be nil only
// when no caller passes expanded URLs; Grammar must be set.
type Deps struct {
	Bias    *bias.Table
	Grammar grammar.Checker
}

// Extract computes the feature set for one piece of text. expandedURLs, when
// non-nil, is matched against the bias reference; nil leaves the URL-match
// fields at their zero defaults. Model and grammar failures propagate.
func Extract(ctx context.Context, text string, bundle *models.Bundle, expandedURLs []string, deps Deps) (*feature.FeatureRecord, error) {
	vars := feature.New()
	stripped := textstats.Strip(text)

	vars.Set("post_length", len([]rune(text)))

	vars.Set("exclamation_count", countRune(stripped, '!'))
	vars.Set("question_mark_count", countRune(stripped, '?'))
	vars.Set("hashtag_count", len(textstats.ReHashtag.FindAllString(text, -1)))
	vars.Set("emoji_count", textstats.EmojiCount(text))
	vars.Set("mentions_count", len(textstats.ReMention.FindAllString(text, -1)))
	vars.Set("url_count", len(textstats.ReURL.FindAllString(text, -1)))

	if expandedURLs != nil {
		res := deps.Bias.Resolve(expandedURLs)
		vars.Set("url_mbfc_matches", len(res.Bias))
		vars.Set("url_mbfc_bias", emptyFloats(res.Bias))
		vars.Set("url_mbfc_credibility", emptyFloats(res.Credibility))
	} else {
		vars.Set("url_mbfc_matches", 0)
		vars.Set("url_mbfc_bias", []float64{})
		vars.Set("url_mbfc_credibility", []float64{})
	}

	if stripped == "" {
		return vars, nil
	}

	charCount := textstats.CharCount(stripped)
	capitals := textstats.CountCapitals(stripped)
	vars.Set("character_count", charCount)
	vars.Set("capt_character_count", capitals)
	if charCount == 0 {
		return nil, fmt.Errorf("character count is zero for non-empty stripped text %q", stripped)
	}
	vars.Set("capt_character_prop", round3(float64(capitals)/float64(charCount)))
	vars.Set("letter_count", textstats.LetterCount(stripped))
	vars.Set("word_count", textstats.LexiconCount(stripped))
	vars.Set("unique_word_count", textstats.UniqueWordCount(stripped))
	vars.Set("sentence_count", textstats.SentenceCount(stripped))
	vars.Set("syllable_count", textstats.SyllableCount(stripped))
	vars.Set("monosyllable_count", textstats.MonosyllableCount(stripped))
	vars.Set("polysyllable_count", textstats.PolysyllableCount(stripped))

	gscore, err := grammar.Score(ctx, deps.Grammar, stripped)
	if err != nil {
		return nil, err
	}
	vars.Set("grammar_score", gscore)
	vars.Set("reading_ease", textstats.FleschReadingEase(stripped))
	vars.Set("non_eng_reading_ease", textstats.McAlpineEFLAW(stripped))
	vars.Set("reading_grade", textstats.TextStandard(stripped))

	if err := addModelFeatures(ctx, vars, stripped, bundle); err != nil {
		return nil, err
	}
	return vars, nil
}

func addModelFeatures(ctx context.Context, vars *feature.FeatureRecord, stripped string, bundle *models.Bundle) error {
	topics, err := bundle.Topic.Classify(ctx, stripped)
	if err != nil {
		return err
	}
	topicProbs := make(map[string]float64, len(topics.Labels))
	for _, label := range topics.Labels {
		topicProbs[label] = topics.Probabilities[label]
	}
	vars.Set("topics", topics.Labels)
	vars.Set("topic_prob", topicProbs)

	single := []struct {
		key string
		c   models.Classifier
	}{
		{"sentiment", bundle.Sentiment},
		{"irony", bundle.Irony},
		{"offensive", bundle.Offensive},
		{"emotion", bundle.Emotion},
		{"hate", bundle.Hate},
	}
	for _, m := range single {
		pred, err := m.c.Classify(ctx, stripped)
		if err != nil {
			return err
		}
		label, prob := pred.Top()
		vars.Set(m.key, label)
		vars.Set(m.key+"_prob", prob)
	}

	entities, err := bundle.NER.Entities(ctx, stripped)
	if err != nil {
		return err
	}
	types := make([]string, len(entities))
	probs := make([]float64, len(entities))
	for i, e := range entities {
		types[i] = e.Type
		probs[i] = e.Probability
	}
	vars.Set("entity_count", len(entities))
	vars.Set("entity_types", types)
	vars.Set("entity_prob", probs)
	return nil
}

func countRune(s string, r rune) int {
	n := 0
	for _, c := range s {
		if c == r {
			n++
		}
	}
	return n
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func emptyFloats(f []float64) []float64 {
	if f == nil {
		return []float64{}
	}
	return f
}
