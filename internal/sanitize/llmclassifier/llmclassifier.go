// Package llmclassifier provides a Classifier that uses a local
// OpenAI-compatible LLM (e.g. Ollama with qwen2.5) as the semantic tier when
// the GiNZA sidecar is not deployed.
//
// We ask the model to return the entity strings verbatim rather than
// offsets, because small models get offsets wrong. Go code locates all
// occurrences in the cell text itself.
package llmclassifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gonkalabs/gonka-mask-go/internal/sanitize"
)

const systemPrompt = `Extract named entities from a single cell of a Japanese business spreadsheet. Return a JSON array of objects {"text": "...", "label": "..."} with the exact substrings. Return [] if nothing found.

Labels:
- Person: personal names, in kanji, kana or romaji (e.g. 田中太郎, たなか, Taro Tanaka)
- Location: prefectures, cities, wards, street names, countries (e.g. 東京都, 渋谷区)
- Organization: companies, schools, government bodies (e.g. 株式会社山田商事)
- Facility: buildings, stations, stores, hospitals (e.g. 渋谷駅, 〇〇ビル)

Do NOT flag: dates, amounts, product codes, common words, "***" markers.

Return ONLY the JSON array. No explanation.

Examples:
Input: "田中太郎さんが渋谷駅で待っています"
Output: [{"text": "田中太郎", "label": "Person"}, {"text": "渋谷駅", "label": "Facility"}]

Input: "明日出社します"
Output: []`

// ErrBadAnswer is returned when the model replies without a usable entity
// array. The cell cannot be judged, so the run must not go on without it.
var ErrBadAnswer = errors.New("llmclassifier: answer is not an entity array")

// Classifier calls a local LLM to detect entities.
type Classifier struct {
	baseURL string
	model   string
	http    *http.Client
}

// New creates a Classifier.
// baseURL is the Ollama (or any OpenAI-compatible) server, e.g. "http://ollama:11434".
func New(baseURL, model string) *Classifier {
	return &Classifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http: &http.Client{
			Timeout: 125 * time.Second,
		},
	}
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	// Hint to disable chain-of-thought thinking (Qwen3 and some others support this).
	// stripThinkBlock handles models that ignore it.
	Think bool `json:"think"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning"` // Qwen3 via Ollama
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Probe checks that the server answers and lists models.
func (c *Classifier) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("llmclassifier: request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("llmclassifier: LLM unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llmclassifier: model list: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Classify sends text to the LLM and returns entity spans. An answer without
// a JSON entity array is an error like a transport failure; an empty array
// means no entities.
func (c *Classifier) Classify(ctx context.Context, text string) ([]sanitize.Span, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	reqBody := openAIRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			// /no_think is Qwen3's control token to skip thinking and go straight to the answer.
			{Role: "user", Content: "Cell:\n" + text + "\n/no_think"},
		},
		Temperature: 0,
		MaxTokens:   2000,
		Think:       false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("llmclassifier: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llmclassifier: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llmclassifier: LLM unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody [512]byte
		n, _ := resp.Body.Read(errBody[:])
		return nil, fmt.Errorf("llmclassifier: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody[:n])))
	}

	var oaiResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return nil, fmt.Errorf("llmclassifier: decode response: %w", err)
	}
	if len(oaiResp.Choices) == 0 {
		return nil, ErrBadAnswer
	}

	choice := oaiResp.Choices[0]
	if choice.FinishReason == "length" {
		slog.Warn("llmclassifier: response truncated by token limit")
	}

	// Qwen3 via Ollama puts thinking in "reasoning" and the answer in "content".
	raw := strings.TrimSpace(choice.Message.Content)
	if raw == "" {
		raw = strings.TrimSpace(choice.Message.Reasoning)
	}

	content := stripThinkBlock(raw)
	content = stripCodeFence(content)
	content = extractJSONArray(content)

	var entities []entity
	if err := json.Unmarshal([]byte(content), &entities); err != nil {
		slog.Debug("llmclassifier: unparseable answer", "content", raw)
		return nil, fmt.Errorf("%w: %w", ErrBadAnswer, err)
	}

	return locate(text, entities), nil
}

// locate finds every occurrence of each entity string in text.
func locate(text string, entities []entity) []sanitize.Span {
	var spans []sanitize.Span
	for _, e := range entities {
		val := strings.TrimSpace(e.Text)
		if val == "" {
			continue
		}
		start := 0
		for {
			idx := strings.Index(text[start:], val)
			if idx < 0 {
				break
			}
			abs := start + idx
			end := abs + len(val)
			spans = append(spans, sanitize.Span{
				Start: abs,
				End:   end,
				Label: e.Label,
				Score: 1.0,
			})
			start = end
		}
	}
	return spans
}

// extractJSONArray finds the outermost [...] substring in s.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	if start < 0 {
		return s
	}
	end := strings.LastIndex(s, "]")
	if end < start {
		return s
	}
	return s[start : end+1]
}

// stripThinkBlock removes Qwen3's <think>...</think> block that appears before
// the actual answer when thinking mode is active.
func stripThinkBlock(s string) string {
	const open, close = "<think>", "</think>"
	start := strings.Index(s, open)
	if start < 0 {
		return s
	}
	end := strings.Index(s, close)
	if end < 0 {
		// Unclosed block - drop everything from <think> onwards.
		return strings.TrimSpace(s[:start])
	}
	return strings.TrimSpace(s[:start] + s[end+len(close):])
}

// stripCodeFence removes ```json ... ``` or ``` ... ``` wrappers.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
