package profile

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smderive/pkg/bias"
	"smderive/pkg/feature"
	"smderive/pkg/geocode"
	"smderive/pkg/models"
	"smderive/pkg/names"
	"smderive/pkg/textfeat"
)

type stubClassifier struct{ pred models.Prediction }

func (s stubClassifier) Classify(ctx context.Context, text string) (models.Prediction, error) {
	return s.pred, nil
}

type stubRecognizer struct{}

func (stubRecognizer) Entities(ctx context.Context, text string) ([]models.Entity, error) {
	return nil, nil
}

type stubGrammar struct{}

func (stubGrammar) Check(ctx context.Context, text string) (int, error) { return 0, nil }

func testBundle() *models.Bundle {
	c := stubClassifier{pred: models.Prediction{
		Labels:        []string{"neutral"},
		Probabilities: map[string]float64{"neutral": 0.5},
	}}
	return &models.Bundle{
		Topic: c, Sentiment: c, Irony: c, Offensive: c, Emotion: c, Hate: c,
		NER: stubRecognizer{},
	}
}

func testNamesStore(t *testing.T) *names.Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := names.OpenDB(db)
	require.NoError(t, err)

	one := 1
	for _, src := range []string{"a", "b", "c"} {
		require.NoError(t, store.AddRank(context.Background(), "jane", names.KindFirst, src, &one))
		require.NoError(t, store.AddRank(context.Background(), "doe", names.KindLast, src, &one))
	}
	return store
}

func testDeps(t *testing.T) textfeat.Deps {
	t.Helper()
	table, err := bias.ReadTable(strings.NewReader("url,bias_rating,factual_reporting_rating\n"))
	require.NoError(t, err)
	return textfeat.Deps{Bias: table, Grammar: stubGrammar{}}
}

func baseRecord() feature.Record {
	return feature.Record{Index: 0, Fields: map[string]string{
		"ID":              "123",
		"created_at":      "2021-03-04T10:20:30.000Z",
		"followers_count": "150",
		"following_count": "200.0",
		"tweet_count":     "45",
		"listed_count":    "2",
		"display_name":    "Dr. Jane Doe !!",
		"screen_name":     "@janedoe",
	}}
}

func getv(t *testing.T, fr *feature.FeatureRecord, key string) interface{} {
	t.Helper()
	v, ok := fr.Get(key)
	require.True(t, ok, "feature %q missing", key)
	return v
}

func TestDeriveDisplayName(t *testing.T) {
	d := &Deriver{Names: testNamesStore(t), TextDeps: testDeps(t)}

	fr, err := d.Derive(context.Background(), baseRecord(), testBundle())
	require.NoError(t, err)

	assert.Equal(t, "123", getv(t, fr, "ID"))
	assert.Equal(t, "2021-03-04", getv(t, fr, "created_date"))
	assert.Equal(t, 150, getv(t, fr, "followers_count"))
	assert.Equal(t, 200, getv(t, fr, "following_count"))

	assert.Equal(t, 15, getv(t, fr, "DN_length"))
	assert.Equal(t, 2, getv(t, fr, "DN_exclamation_count"))
	assert.Equal(t, 0, getv(t, fr, "DN_question_mark_count"))
	assert.Equal(t, true, getv(t, fr, "DN_listed_salutation"))
	assert.Equal(t, true, getv(t, fr, "DN_first_name"))
	// the trailing "!!" token displaces the surname
	assert.Equal(t, false, getv(t, fr, "DN_last_name"))
	assert.InDelta(t, 58.33, getv(t, fr, "DN_handle_similarity").(float64), 0.01)

	assert.Equal(t, false, getv(t, fr, "LC_field_populated"))
	assert.Equal(t, false, getv(t, fr, "DS_field_populated"))
}

func TestDeriveRealSurname(t *testing.T) {
	d := &Deriver{Names: testNamesStore(t), TextDeps: testDeps(t)}
	rec := baseRecord()
	rec.Fields["display_name"] = "Jane Doe"

	fr, err := d.Derive(context.Background(), rec, testBundle())
	require.NoError(t, err)

	assert.Equal(t, false, getv(t, fr, "DN_listed_salutation"))
	assert.Equal(t, true, getv(t, fr, "DN_first_name"))
	assert.Equal(t, true, getv(t, fr, "DN_last_name"))
	assert.Equal(t, 100.0, getv(t, fr, "DN_handle_similarity"))
}

func TestDeriveLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "NYC":
			w.Write([]byte(`[{"display_name":"New York","addresstype":"city"}]`))
		case "USA":
			w.Write([]byte(`[{"display_name":"United States","addresstype":"country"}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	d := &Deriver{
		Names:    testNamesStore(t),
		TextDeps: testDeps(t),
		Geocoder: geocode.New(geocode.Config{
			BaseURL:           srv.URL,
			UserAgent:         "test",
			RequestsPerSecond: 1e6,
		}),
	}
	rec := baseRecord()
	rec.Fields["location"] = "NYC, USA / Atlantis"

	fr, err := d.Derive(context.Background(), rec, testBundle())
	require.NoError(t, err)

	assert.Equal(t, true, getv(t, fr, "LC_field_populated"))
	assert.Equal(t, 3, getv(t, fr, "LC_level_count"))
	assert.Equal(t, 2, getv(t, fr, "LC_levels_identified"))
	assert.Equal(t, []string{"city", "country"}, getv(t, fr, "LC_level_types"))
}

func TestDeriveDescription(t *testing.T) {
	d := &Deriver{Names: testNamesStore(t), TextDeps: testDeps(t)}
	rec := baseRecord()
	rec.Fields["description"] = "I write about the news every single day of the week"

	fr, err := d.Derive(context.Background(), rec, testBundle())
	require.NoError(t, err)

	assert.Equal(t, true, getv(t, fr, "DS_field_populated"))
	assert.Equal(t, "en", getv(t, fr, "DS_language"))
	assert.Equal(t, 11, getv(t, fr, "DS_word_count"))
	assert.Equal(t, "neutral", getv(t, fr, "DS_sentiment"))
}

func TestDeriveMissingCounts(t *testing.T) {
	d := &Deriver{Names: testNamesStore(t), TextDeps: testDeps(t)}
	rec := baseRecord()
	delete(rec.Fields, "followers_count")

	_, err := d.Derive(context.Background(), rec, testBundle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "followers_count")
}
