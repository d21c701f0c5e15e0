// Package models wraps the pretrained-model provider behind classifier
// interfaces. A Bundle is the set of seven handles one worker loads once and
// never shares; the provider itself is an external collaborator reached over
// HTTP.
package models

import (
	"context"
	"fmt"
)

// Prediction is the outcome of one classification call. Labels carries the
// detected labels (a single element for binary/ternary models, several for
// the multi-label topic model); Probabilities maps every detected label to
// its probability.
type Prediction struct {
	Labels        []string
	Probabilities map[string]float64
}

// Top returns the highest-probability detected label.
func (p Prediction) Top() (string, float64) {
	best := ""
	bestP := -1.0
	for _, l := range p.Labels {
		if pr := p.Probabilities[l]; pr > bestP {
			best, bestP = l, pr
		}
	}
	if bestP < 0 {
		return "", 0
	}
	return best, bestP
}

// Classifier labels a piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// Entity is one named entity detected in text.
type Entity struct {
	Type        string
	Probability float64
}

// Recognizer extracts named entities from text.
type Recognizer interface {
	Entities(ctx context.Context, text string) ([]Entity, error)
}

// Bundle holds the seven loaded model handles. One bundle belongs to exactly
// one worker for that worker's entire lifetime.
type Bundle struct {
	Topic     Classifier
	Sentiment Classifier
	Irony     Classifier
	Offensive Classifier
	Emotion   Classifier
	Hate      Classifier
	NER       Recognizer
}

// Loader builds a fresh Bundle. The orchestrator calls it exactly once per
// worker before that worker services any batch.
type Loader func(ctx context.Context) (*Bundle, error)

// Validate reports the first missing handle, if any.
func (b *Bundle) Validate() error {
	switch {
	case b.Topic == nil:
		return fmt.Errorf("model bundle: topic classifier missing")
	case b.Sentiment == nil:
		return fmt.Errorf("model bundle: sentiment classifier missing")
	case b.Irony == nil:
		return fmt.Errorf("model bundle: irony classifier missing")
	case b.Offensive == nil:
		return fmt.Errorf("model bundle: offensive classifier missing")
	case b.Emotion == nil:
		return fmt.Errorf("model bundle: emotion classifier missing")
	case b.Hate == nil:
		return fmt.Errorf("model bundle: hate classifier missing")
	case b.NER == nil:
		return fmt.Errorf("model bundle: ner recognizer missing")
	}
	return nil
}
