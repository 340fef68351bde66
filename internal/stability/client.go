// Package stability is a client for the Stability AI REST text-to-image
// endpoint.
package stability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/satindergrewal/voiceart/internal/logger"
)

var ErrUnauthorized = errors.New("stability: missing or rejected API key")

const (
	maxAttempts   = 3
	retryInterval = 2 * time.Second
)

// Client calls the Stability API with a key injected at construction.
type Client struct {
	apiURL string
	apiKey string
	engine string
	http   *http.Client
	log    *logger.Logger

	retryInterval time.Duration
}

// NewClient creates a Stability client. An empty apiKey is accepted here and
// reported as ErrUnauthorized on the first Generate call.
func NewClient(apiURL, apiKey, engine string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		apiURL:        strings.TrimRight(apiURL, "/"),
		apiKey:        apiKey,
		engine:        engine,
		http:          &http.Client{Timeout: 120 * time.Second},
		log:           log,
		retryInterval: retryInterval,
	}
}

// GenerateRequest contains parameters for one image.
type GenerateRequest struct {
	Prompt   string
	Seed     int
	Steps    int
	CFGScale float64
	Width    int
	Height   int
	Samples  int
}

type textPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type textToImageBody struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CFGScale    float64      `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
	Seed        int          `json:"seed"`
}

// StatusError is a non-success response that was not retried.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stability status %d: %s", e.StatusCode, e.Body)
}

// Generate renders the prompt and returns the PNG bytes. Rate limiting and
// server errors are retried; everything else fails immediately.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("stability: empty prompt")
	}

	body, err := json.Marshal(textToImageBody{
		TextPrompts: []textPrompt{{Text: req.Prompt, Weight: 1}},
		CFGScale:    req.CFGScale,
		Height:      req.Height,
		Width:       req.Width,
		Samples:     req.Samples,
		Steps:       req.Steps,
		Seed:        req.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		img, retry, err := c.post(ctx, body)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !retry || attempt == maxAttempts {
			break
		}
		c.log.Warn("stability request failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryInterval):
		}
	}
	return nil, lastErr
}

// post performs one attempt and reports whether a failure is worth retrying.
func (c *Client) post(ctx context.Context, body []byte) ([]byte, bool, error) {
	url := fmt.Sprintf("%s/v1/generation/%s/text-to-image", c.apiURL, c.engine)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/png")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("stability request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if len(data) == 0 {
			return nil, false, errors.New("stability: empty image")
		}
		return data, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	default:
		return nil, false, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
}
