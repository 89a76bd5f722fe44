package paraphrase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
)

func sampleRequest() Request {
	return Request{
		RuleReply:    "Det var uvant, men jeg klarte litt mer å bare se på bekymringstrangen.",
		Trace:        "Phase: early\nDifficulty 1",
		Phase:        rules.PhaseEarly,
		Intervention: rules.Mindfulness,
		Difficulty:   rules.Level1,
		State:        belief.Seed(),
	}
}

func TestOpenAIParaphraserSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("wrong path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("wrong auth header: %s", r.Header.Get("Authorization"))
		}

		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o-mini" {
			t.Errorf("expected gpt-4o-mini, got %s", req.Model)
		}
		if req.Temperature != 0.7 || req.MaxTokens != 90 {
			t.Errorf("unexpected sampling: %v %d", req.Temperature, req.MaxTokens)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, "bekymringstrangen") {
			t.Errorf("rule reply missing from prompt: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(chatResponse{Choices: []chatChoice{
			{Message: chatMessage{Role: "assistant", Content: "Det var rart.\nMen jeg klarte det litt."}},
		}})
	}))
	defer srv.Close()

	p := NewOpenAIParaphraser("test-key", WithOpenAIBaseURL(srv.URL+"/v1"))
	resp, err := p.Paraphrase(context.Background(), sampleRequest())
	if err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.Reply != "Det var rart. Men jeg klarte det litt." {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestOpenAIParaphraserEmptyKey(t *testing.T) {
	_, err := NewOpenAIParaphraser("").Paraphrase(context.Background(), sampleRequest())
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestOpenAIParaphraserHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOpenAIParaphraser("test-key", WithOpenAIBaseURL(srv.URL)).Paraphrase(context.Background(), sampleRequest())
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected 429 error, got %v", err)
	}
}

func TestOpenAIParaphraserEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{Choices: []chatChoice{{Message: chatMessage{Content: "  \n "}}}})
	}))
	defer srv.Close()

	_, err := NewOpenAIParaphraser("test-key", WithOpenAIBaseURL(srv.URL)).Paraphrase(context.Background(), sampleRequest())
	if !errors.Is(err, ErrNoReply) {
		t.Errorf("expected ErrNoReply, got %v", err)
	}
}

func TestFlattenCuts(t *testing.T) {
	got := flatten(strings.Repeat("æ", 400))
	if n := len([]rune(got)); n != maxRawRunes {
		t.Fatalf("expected %d runes, got %d", maxRawRunes, n)
	}
}

func TestBuildPromptCarriesContext(t *testing.T) {
	p := buildPrompt(sampleRequest())
	for _, want := range []string{`"phase": "early"`, `"interventionType": "mindfulness"`, `"beliefUncontrollability": 80`, "Difficulty 1"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
