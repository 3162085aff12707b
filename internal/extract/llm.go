package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/swiftfreight/quote-engine/internal/models"
	"github.com/swiftfreight/quote-engine/internal/ratelimit"
)

const systemPrompt = `You are a freight shipment extraction engine. Extract shipment details from the email below and respond with ONLY a JSON object, no prose, with this shape:
{
  "shipment": {
    "origin_zip": "", "destination_zip": "", "weight_lbs": 0, "pieces": 0,
    "dimensions": {"length": 0, "width": 0, "height": 0},
    "commodity": "", "special_services": [], "equipment_type": "",
    "pickup_date": "YYYY-MM-DD", "hazmat": false, "hazmat_class": "",
    "declared_value": 0
  },
  "confidence": {"overall": 0.0, "fields": {}}
}
Use empty strings or zero for anything the email does not state, and score confidence per extracted field between 0 and 1.`

// LLMExtractor calls an OpenAI-compatible chat completions endpoint. Calls
// pass through the shared "llm" rate limit bucket before any network I/O.
type LLMExtractor struct {
	BaseURL string
	Model   string
	APIKey  string
	Limiter *ratelimit.Limiter
	Client  *http.Client
}

func (e LLMExtractor) Extract(ctx context.Context, emailBody string) (models.RawShipment, models.ExtractionConfidence, error) {
	var zero models.RawShipment
	var zeroConf models.ExtractionConfidence

	if strings.TrimSpace(e.BaseURL) == "" {
		return zero, zeroConf, fmt.Errorf("EXTRACTOR_URL is not set")
	}
	if strings.TrimSpace(e.Model) == "" {
		return zero, zeroConf, fmt.Errorf("EXTRACTOR_MODEL is not set")
	}
	if e.Limiter != nil {
		if err := e.Limiter.Acquire("llm"); err != nil {
			return zero, zeroConf, err
		}
	}

	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	payload := struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []msg   `json:"messages"`
	}{
		Model: e.Model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: emailBody},
		},
	}

	b, _ := json.Marshal(payload)
	url := strings.TrimRight(e.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return zero, zeroConf, err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(e.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	client := e.Client
	if client == nil {
		timeout := 45 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
				timeout = remaining
			}
		}
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, zeroConf, fmt.Errorf("extractor request timed out")
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return zero, zeroConf, fmt.Errorf("extractor request timed out")
		}
		return zero, zeroConf, fmt.Errorf("extractor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(0)
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, perr := time.ParseDuration(s + "s"); perr == nil {
				retryAfter = secs
			}
		}
		return zero, zeroConf, ratelimit.Blocked{Provider: "llm", RetryAfter: retryAfter}
	}
	if resp.StatusCode >= 400 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return zero, zeroConf, fmt.Errorf("extractor http error: %s: %v", resp.Status, errBody)
	}

	var res struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return zero, zeroConf, err
	}
	if len(res.Choices) == 0 {
		return zero, zeroConf, fmt.Errorf("empty extractor response")
	}

	var parsed struct {
		Shipment   models.RawShipment          `json:"shipment"`
		Confidence models.ExtractionConfidence `json:"confidence"`
	}
	content := StripFences(res.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return zero, zeroConf, fmt.Errorf("extractor returned malformed JSON: %w", err)
	}
	return parsed.Shipment, parsed.Confidence, nil
}

// StripFences removes a surrounding markdown code fence, which chat models
// emit even when told to return bare JSON.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
