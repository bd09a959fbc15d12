// Package dispatch sends a rendered prompt to a text-generation server and
// returns the generated text.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/promptbench/pkg/llm"
)

// GeneratePath is the generation endpoint relative to the base URL.
const GeneratePath = "/api/v1/generate"

// maxErrorBody caps how much of an error response is kept in ErrHTTPStatus.
const maxErrorBody = 512

// Client issues single, unretried generation requests.
type Client struct {
	config     Config
	logger     *zap.Logger
	httpClient *http.Client
}

// New creates a new Client.
func New(config Config, logger *zap.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// URL returns the full generation endpoint.
func (c *Client) URL() string {
	return strings.TrimRight(c.config.BaseURL, "/") + GeneratePath
}

// Dispatch sends prompt with the given generation length and sampler options,
// returning results[0].text. maxLength <= 0 uses llm.DefaultMaxLength.
func (c *Client) Dispatch(ctx context.Context, prompt string, maxLength int, sampler llm.Sampler) (string, error) {
	if maxLength <= 0 {
		maxLength = llm.DefaultMaxLength
	}

	reqBody, err := json.Marshal(llm.GenerateRequest{
		Prompt:    prompt,
		MaxLength: maxLength,
		Sampler:   sampler,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.URL()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)

	c.logger.Debug("sending generation request",
		zap.String("url", url),
		zap.Int("body_size", len(reqBody)),
		zap.Int("max_length", maxLength),
		zap.Any("sampler", sampler.Map()),
	)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", ErrNetwork{URL: url, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", ErrNetwork{URL: url, Err: fmt.Errorf("read response: %w", err)}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		c.logger.Error("generation server returned error",
			zap.Int("status", httpResp.StatusCode),
			zap.String("body", truncate(string(body), maxErrorBody)),
		)
		return "", ErrHTTPStatus{StatusCode: httpResp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}

	var resp llm.GenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", ErrMalformedResponse{Reason: "decode body: " + err.Error()}
	}

	text, ok := resp.FirstText()
	if !ok {
		return "", ErrMalformedResponse{Reason: "results[0].text missing"}
	}

	c.logger.Debug("received generation",
		zap.Int("status", httpResp.StatusCode),
		zap.String("text_preview", truncate(text, 100)),
	)

	return text, nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
