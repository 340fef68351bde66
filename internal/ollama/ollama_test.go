package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const composed = "Create a flowing, organic, with repeating patterns  artwork using vibrant complementary colors with warm undertones, featuring a dynamic spiral composition rendered in an expressive oil painting style"

func ollamaServer(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
		case "/api/generate":
			var req generateRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "llama3.2", req.Model)
			assert.False(t, req.Stream)
			assert.Equal(t, composed, req.Prompt)
			assert.Equal(t, refineSystemPrompt, req.System)
			assert.Equal(t, refineRequest(composed).Options, req.Options)
			if status != http.StatusOK {
				http.Error(w, "model not found", status)
				return
			}
			json.NewEncoder(w).Encode(generateResponse{Response: reply, Done: true})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// --- cleanResponse ---

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain text  ", "plain text"},
		{`"quoted"`, "quoted"},
		{"<think>hmm</think>\nanswer", "answer"},
		{"Here's the prompt: a swirl", "a swirl"},
		{"Prompt: \"x\"", `"x"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanResponse(tt.in), tt.in)
	}
}

// --- Refine ---

func TestRefineReturnsCleanedOutput(t *testing.T) {
	refined := "A flowing organic artwork with repeating patterns in vibrant complementary colors and warm undertones, arranged in a dynamic spiral, rendered as an expressive oil painting"
	srv := ollamaServer(t, `"`+refined+`"`, http.StatusOK)
	r := NewRefiner(NewClient(srv.URL, "llama3.2", nil), nil)

	assert.Equal(t, refined, r.Refine(context.Background(), composed))
}

func TestRefineFallsBackOnError(t *testing.T) {
	srv := ollamaServer(t, "", http.StatusNotFound)
	r := NewRefiner(NewClient(srv.URL, "llama3.2", nil), nil)

	assert.Equal(t, composed, r.Refine(context.Background(), composed))
}

func TestRefineFallsBackOnUnusableOutput(t *testing.T) {
	for _, reply := range []string{"", "ok", strings.Repeat("very ", 200)} {
		srv := ollamaServer(t, reply, http.StatusOK)
		r := NewRefiner(NewClient(srv.URL, "llama3.2", nil), nil)
		assert.Equal(t, composed, r.Refine(context.Background(), composed))
	}
}

func TestRefineUnreachable(t *testing.T) {
	r := NewRefiner(NewClient("http://127.0.0.1:1", "llama3.2", nil), nil)
	assert.Equal(t, composed, r.Refine(context.Background(), composed))
}

func TestRefineRequestBudget(t *testing.T) {
	req := refineRequest(composed)
	assert.Equal(t, composed, req.Prompt)
	// Enough tokens for the longest reply usable accepts.
	assert.GreaterOrEqual(t, req.Options.NumPredict*4, 3*len(composed))
	assert.Equal(t, []string{"\n\n"}, req.Options.Stop)
	assert.Less(t, req.Options.Temperature, 0.5)
}

// --- Availability ---

func TestPingRequiresModel(t *testing.T) {
	srv := ollamaServer(t, "", http.StatusOK)

	assert.NoError(t, NewClient(srv.URL, "llama3.2", nil).Ping(context.Background()))
	assert.NoError(t, NewClient(srv.URL, "llama3.2:latest", nil).Ping(context.Background()))
	err := NewClient(srv.URL, "qwen3", nil).Ping(context.Background())
	assert.ErrorContains(t, err, "not pulled")
}

func TestWaitForReady(t *testing.T) {
	var ready atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"models":[{"name":"m:latest"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", nil)
	c.pollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, c.WaitForReady(ctx))

	ready.Store(true)
	assert.True(t, c.WaitForReady(context.Background()))
}
