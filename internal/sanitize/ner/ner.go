// Package ner provides a Classifier backed by the sanitize-ner sidecar, a
// small HTTP service wrapping a Japanese spaCy/GiNZA pipeline.
//
// Unlike a best-effort filter, a masking run cannot quietly drop the NER
// layer halfway through a file: once Probe has succeeded, every transport or
// protocol failure is returned as an error.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gonkalabs/gonka-mask-go/internal/sanitize"
)

// Client calls the NER sidecar's /classify endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a NER Client pointing at the given base URL
// (e.g. "http://sanitize-ner:8001").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Spans []nerSpan `json:"spans"`
}

// nerSpan offsets are character offsets (spaCy start_char / end_char).
type nerSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Probe checks that the sidecar is up and its model is loaded.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("ner: request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ner: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ner: health check: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Classify sends text to the NER sidecar and returns entity spans with byte
// offsets into text.
func (c *Client) Classify(ctx context.Context, text string) ([]sanitize.Span, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody [512]byte
		n, _ := resp.Body.Read(errBody[:])
		return nil, fmt.Errorf("ner: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody[:n])))
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ner: decode: %w", err)
	}

	spans := make([]sanitize.Span, 0, len(result.Spans))
	for _, s := range result.Spans {
		start, end := sanitize.RuneToByteOffsets(text, s.Start, s.End)
		spans = append(spans, sanitize.Span{
			Start: start,
			End:   end,
			Label: s.Label,
			Score: 1.0,
		})
	}
	if len(spans) > 0 {
		slog.Debug("ner: entities", "count", len(spans))
	}
	return spans, nil
}
