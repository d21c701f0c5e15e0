package textfeat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smderive/pkg/bias"
	"smderive/pkg/feature"
	"smderive/pkg/models"
)

type stubClassifier struct {
	pred models.Prediction
}

func (s stubClassifier) Classify(ctx context.Context, text string) (models.Prediction, error) {
	return s.pred, nil
}

type stubRecognizer struct {
	ents []models.Entity
}

func (s stubRecognizer) Entities(ctx context.Context, text string) ([]models.Entity, error) {
	return s.ents, nil
}

type stubGrammar struct {
	errs int
}

func (s stubGrammar) Check(ctx context.Context, text string) (int, error) {
	return s.errs, nil
}

func single(label string, prob float64) stubClassifier {
	return stubClassifier{pred: models.Prediction{
		Labels:        []string{label},
		Probabilities: map[string]float64{label: prob},
	}}
}

func testBundle() *models.Bundle {
	return &models.Bundle{
		Topic: stubClassifier{pred: models.Prediction{
			Labels:        []string{"news", "sports"},
			Probabilities: map[string]float64{"news": 0.8, "sports": 0.55},
		}},
		Sentiment: single("positive", 0.9),
		Irony:     single("non_irony", 0.7),
		Offensive: single("not-offensive", 0.95),
		Emotion:   single("joy", 0.6),
		Hate:      single("not-hate", 0.99),
		NER: stubRecognizer{ents: []models.Entity{
			{Type: "PER", Probability: 0.97},
		}},
	}
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	table, err := bias.ReadTable(strings.NewReader(
		"url,bias_rating,factual_reporting_rating\nnytimes.com,2,HIGH\n"))
	require.NoError(t, err)
	return Deps{Bias: table, Grammar: stubGrammar{}}
}

func getv(t *testing.T, fr *feature.FeatureRecord, key string) interface{} {
	t.Helper()
	v, ok := fr.Get(key)
	require.True(t, ok, "feature %q missing", key)
	return v
}

func TestExtract(t *testing.T) {
	text := "Check This http://example.com #great"
	fr, err := Extract(context.Background(), text, testBundle(), nil, testDeps(t))
	require.NoError(t, err)

	assert.Equal(t, len([]rune(text)), getv(t, fr, "post_length"))
	assert.Equal(t, 1, getv(t, fr, "hashtag_count"))
	assert.Equal(t, 1, getv(t, fr, "url_count"))
	assert.Equal(t, 0, getv(t, fr, "mentions_count"))
	assert.Equal(t, 0, getv(t, fr, "emoji_count"))

	// stripped text is "Check This"
	assert.Equal(t, 9, getv(t, fr, "character_count"))
	assert.Equal(t, 2, getv(t, fr, "capt_character_count"))
	assert.Equal(t, 0.222, getv(t, fr, "capt_character_prop"))
	assert.Equal(t, 2, getv(t, fr, "word_count"))
	assert.Equal(t, 2, getv(t, fr, "unique_word_count"))
	assert.Equal(t, 100.0, getv(t, fr, "grammar_score"))

	assert.Equal(t, []string{"news", "sports"}, getv(t, fr, "topics"))
	assert.Equal(t, map[string]float64{"news": 0.8, "sports": 0.55}, getv(t, fr, "topic_prob"))
	assert.Equal(t, "positive", getv(t, fr, "sentiment"))
	assert.Equal(t, 0.9, getv(t, fr, "sentiment_prob"))
	assert.Equal(t, "joy", getv(t, fr, "emotion"))
	assert.Equal(t, 1, getv(t, fr, "entity_count"))
	assert.Equal(t, []string{"PER"}, getv(t, fr, "entity_types"))
	assert.Equal(t, []float64{0.97}, getv(t, fr, "entity_prob"))
}

func TestExtractNilURLDefaults(t *testing.T) {
	fr, err := Extract(context.Background(), "plain text here", testBundle(), nil, testDeps(t))
	require.NoError(t, err)

	assert.Equal(t, 0, getv(t, fr, "url_mbfc_matches"))
	assert.Equal(t, []float64{}, getv(t, fr, "url_mbfc_bias"))
	assert.Equal(t, []float64{}, getv(t, fr, "url_mbfc_credibility"))
}

func TestExtractBiasMatches(t *testing.T) {
	urls := []string{"https://www.nytimes.com/a", "https://unknown.example/b"}
	fr, err := Extract(context.Background(), "linked text here", testBundle(), urls, testDeps(t))
	require.NoError(t, err)

	assert.Equal(t, 1, getv(t, fr, "url_mbfc_matches"))
	assert.Equal(t, []float64{2}, getv(t, fr, "url_mbfc_bias"))
	assert.Equal(t, []float64{0}, getv(t, fr, "url_mbfc_credibility"))
}

func TestExtractBlankText(t *testing.T) {
	fr, err := Extract(context.Background(), "#tags @only http://x.example", testBundle(), nil, testDeps(t))
	require.NoError(t, err)

	// stripped text is empty: surface counts only, no text statistics
	assert.Equal(t, 1, getv(t, fr, "hashtag_count"))
	_, ok := fr.Get("word_count")
	assert.False(t, ok)
	_, ok = fr.Get("sentiment")
	assert.False(t, ok)
}
