package models

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionTop(t *testing.T) {
	p := Prediction{
		Labels:        []string{"joy", "anger"},
		Probabilities: map[string]float64{"joy": 0.3, "anger": 0.6},
	}
	label, prob := p.Top()
	assert.Equal(t, "anger", label)
	assert.Equal(t, 0.6, prob)

	label, prob = Prediction{}.Top()
	assert.Equal(t, "", label)
	assert.Equal(t, 0.0, prob)
}

func TestBundleValidate(t *testing.T) {
	b := &Bundle{}
	err := b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic")
}

func TestHTTPLoader(t *testing.T) {
	var mu sync.Mutex
	loaded := map[string]int{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		require.Len(t, parts, 3) // models/{name}/{op}
		model, op := parts[1], parts[2]
		switch op {
		case "load":
			mu.Lock()
			loaded[model]++
			mu.Unlock()
		case "predict":
			var in struct {
				Text string `json:"text"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			if model == "ner" {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"entities": []map[string]interface{}{
						{"type": "PER", "probability": 0.98},
						{"type": "LOC", "probability": 0.72},
					},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"labels":        []string{"positive"},
				"probabilities": map[string]float64{"positive": 0.91},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := HTTPLoader(HTTPConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	bundle, err := loader(context.Background())
	require.NoError(t, err)
	require.NoError(t, bundle.Validate())

	// every model loads exactly once
	mu.Lock()
	assert.Len(t, loaded, 7)
	for model, n := range loaded {
		assert.Equal(t, 1, n, "model %s", model)
	}
	mu.Unlock()

	pred, err := bundle.Sentiment.Classify(context.Background(), "great day")
	require.NoError(t, err)
	label, prob := pred.Top()
	assert.Equal(t, "positive", label)
	assert.Equal(t, 0.91, prob)

	ents, err := bundle.NER.Entities(context.Background(), "Jane in Paris")
	require.NoError(t, err)
	require.Len(t, ents, 2)
	assert.Equal(t, "PER", ents[0].Type)
	assert.Equal(t, 0.72, ents[1].Probability)
}

func TestHTTPLoaderLoadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model weights missing", http.StatusInternalServerError)
	}))
	defer srv.Close()

	loader := HTTPLoader(HTTPConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	_, err := loader(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load model")
}
