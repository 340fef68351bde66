// Package ollama talks to a local Ollama server to polish composed prompts.
package ollama

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

// Client talks to a local Ollama API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	log        *logger.Logger

	pollInterval time.Duration
}

// NewClient creates an Ollama client.
func NewClient(baseURL, model string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // first call loads the model
		},
		log:          log,
		pollInterval: 3 * time.Second,
	}
}

// Options are the sampling parameters sent with a generation. Zero fields
// are left to the model's defaults, except Temperature.
type Options struct {
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Seed        int      `json:"seed,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// Request is one non-streaming completion.
type Request struct {
	System  string
	Prompt  string
	Options Options
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	System  string  `json:"system,omitempty"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Ping reports whether the server answers and has the configured model
// pulled. A bare model name matches any of its tags.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama tags status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == c.model || strings.HasPrefix(m.Name, c.model+":") {
			return nil
		}
	}
	return fmt.Errorf("model %q not pulled", c.model)
}

// Generate runs req against the configured model and returns the trimmed
// response text.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  req.Prompt,
		System:  req.System,
		Options: req.Options,
	})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if !out.Done {
		return "", errors.New("ollama returned a partial response")
	}
	return strings.TrimSpace(out.Response), nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// WaitForReady polls Ollama until it responds or ctx expires. Ollama is
// optional, so callers treat false as "run without refinement".
func (c *Client) WaitForReady(ctx context.Context) bool {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		err := c.Ping(ctx)
		if err == nil {
			c.log.Info("ollama ready", "model", c.model)
			return true
		}
		c.log.Debug("ollama not ready", "error", err)

		select {
		case <-ctx.Done():
			c.log.Warn("ollama unavailable, prompts will not be refined", "error", err)
			return false
		case <-ticker.C:
		}
	}
}
