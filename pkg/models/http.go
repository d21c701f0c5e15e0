package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPConfig points at the inference server exposing one route per model.
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Model route names on the inference server.
const (
	modelTopic     = "topic_classification"
	modelSentiment = "sentiment"
	modelIrony     = "irony"
	modelOffensive = "offensive"
	modelEmotion   = "emotion"
	modelHate      = "hate"
	modelNER       = "ner"
)

type httpClassifier struct {
	base   string
	model  string
	client *http.Client
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Labels        []string           `json:"labels"`
	Probabilities map[string]float64 `json:"probabilities"`
}

func (c *httpClassifier) post(ctx context.Context, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/models/%s/predict", c.base, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("model %s: %w", c.model, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("model %s: status %d: %s", c.model, resp.StatusCode, b)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *httpClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	var out predictResponse
	if err := c.post(ctx, predictRequest{Text: text}, &out); err != nil {
		return Prediction{}, err
	}
	return Prediction{Labels: out.Labels, Probabilities: out.Probabilities}, nil
}

type httpRecognizer struct {
	httpClassifier
}

type entitiesResponse struct {
	Entities []struct {
		Type        string  `json:"type"`
		Probability float64 `json:"probability"`
	} `json:"entities"`
}

func (c *httpRecognizer) Entities(ctx context.Context, text string) ([]Entity, error) {
	var out entitiesResponse
	if err := c.post(ctx, predictRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	ents := make([]Entity, len(out.Entities))
	for i, e := range out.Entities {
		ents[i] = Entity{Type: e.Type, Probability: e.Probability}
	}
	return ents, nil
}

// HTTPLoader returns a Loader that builds a Bundle of HTTP-backed handles
// and triggers a server-side load of each model. The load request is the
// expensive step the per-worker initializer amortizes across batches.
func HTTPLoader(cfg HTTPConfig) Loader {
	return func(ctx context.Context) (*Bundle, error) {
		client := &http.Client{Timeout: cfg.Timeout}
		mk := func(model string) *httpClassifier {
			return &httpClassifier{base: cfg.BaseURL, model: model, client: client}
		}
		names := []string{modelTopic, modelSentiment, modelIrony, modelOffensive, modelEmotion, modelHate, modelNER}
		for _, name := range names {
			if err := loadModel(ctx, client, cfg.BaseURL, name); err != nil {
				return nil, fmt.Errorf("load model %s: %w", name, err)
			}
		}
		return &Bundle{
			Topic:     mk(modelTopic),
			Sentiment: mk(modelSentiment),
			Irony:     mk(modelIrony),
			Offensive: mk(modelOffensive),
			Emotion:   mk(modelEmotion),
			Hate:      mk(modelHate),
			NER:       &httpRecognizer{httpClassifier{base: cfg.BaseURL, model: modelNER, client: client}},
		}, nil
	}
}

func loadModel(ctx context.Context, client *http.Client, base, model string) error {
	url := fmt.Sprintf("%s/models/%s/load", base, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, b)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
