package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
	"github.com/crelogic/lease-abstractor/internal/infrastructure/resilience"
)

// Client calls the Gemini generateContent API to extract lease terms. It is
// the only place extraction transport concerns live: rate limiting, timeout,
// bounded retries for transport failures. A malformed response is never
// retried; re-running a deterministic failure reproduces it.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	RequestsPerMinute  int
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model, apiKey string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	perMinute := options.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 15
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) Extract(ctx context.Context, req domain.ExtractionRequest) (*domain.ExtractedLeaseData, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.buildRequestBody(req)
	if err != nil {
		return nil, err
	}

	var responseText string
	call := func(ctx context.Context) error {
		text, err := c.generateContent(ctx, body)
		if err != nil {
			return err
		}
		responseText = text
		return nil
	}

	if c.executor != nil {
		err = c.executor.Execute(ctx, "gemini.generate", call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("extract lease terms", err)
	}

	data, err := parseExtractionResponse(responseText)
	if err != nil {
		return nil, err
	}
	return data, nil
}

type generatePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *inlineDataPart `json:"inline_data,omitempty"`
}

type inlineDataPart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

func (c *Client) buildRequestBody(req domain.ExtractionRequest) ([]byte, error) {
	prompt, err := buildExtractionPrompt(req)
	if err != nil {
		return nil, err
	}

	parts := []generatePart{{Text: prompt}}
	if !req.Content.HasText() {
		parts = append(parts, generatePart{InlineData: &inlineDataPart{
			MimeType: req.Content.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Content.Payload),
		}})
	}

	payload := map[string]any{
		"contents": []map[string]any{{"parts": parts}},
		"generationConfig": map[string]any{
			"temperature":      0.1,
			"maxOutputTokens":  16384,
			"responseMimeType": "application/json",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}
	return body, nil
}

func (c *Client) generateContent(ctx context.Context, body []byte) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPStatusError{
			Operation:  "generate",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncate(string(raw), 500),
		}
	}

	var decoded struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", domain.WrapError(domain.ErrExtractionParse, "decode generate envelope", err)
	}

	var sb strings.Builder
	for _, candidate := range decoded.Candidates {
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", domain.WrapError(domain.ErrExtractionParse, "decode generate envelope",
			fmt.Errorf("empty response from model"))
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
