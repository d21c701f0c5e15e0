// Package grammar talks to a LanguageTool-style grammar checking service
// and turns its match count into a grammaticality score.
package grammar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NotApplicable is the sentinel score for blank text.
const NotApplicable = "N/A"

// Checker counts grammar errors in a piece of text.
type Checker interface {
	Check(ctx context.Context, text string) (int, error)
}

// HTTPChecker posts text to the service's /v2/check endpoint.
type HTTPChecker struct {
	baseURL  string
	language string
	client   *http.Client
}

// NewHTTPChecker builds a checker for the en-US language.
func NewHTTPChecker(baseURL string, timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPChecker{
		baseURL:  baseURL,
		language: "en-US",
		client:   &http.Client{Timeout: timeout},
	}
}

// Check returns the number of grammar matches the service reports.
func (c *HTTPChecker) Check(ctx context.Context, text string) (int, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/check",
		strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("grammar check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("grammar check: status %d: %s", resp.StatusCode, b)
	}

	var out struct {
		Matches []json.RawMessage `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("grammar check: %w", err)
	}
	return len(out.Matches), nil
}

// Score computes 100 * (1 - errors/words), floored at zero and rounded to
// two decimals, for already-stripped text. Blank text scores NotApplicable.
func Score(ctx context.Context, c Checker, stripped string) (interface{}, error) {
	if strings.TrimSpace(stripped) == "" {
		return NotApplicable, nil
	}
	errCount, err := c.Check(ctx, stripped)
	if err != nil {
		return nil, err
	}
	words := len(strings.Fields(stripped))
	score := math.Max(0, 100*(1-float64(errCount)/float64(words)))
	return math.Round(score*100) / 100, nil
}
