package paraphrase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIParaphraser rewords replies through an OpenAI-compatible chat completions API.
type OpenAIParaphraser struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// OpenAIOption configures an OpenAIParaphraser.
type OpenAIOption func(*OpenAIParaphraser)

// WithOpenAIModel sets the chat model (default: gpt-4o-mini).
func WithOpenAIModel(model string) OpenAIOption {
	return func(p *OpenAIParaphraser) {
		if model != "" {
			p.model = model
		}
	}
}

// WithOpenAIBaseURL sets the API base URL including the version path
// (default: https://api.openai.com/v1).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(p *OpenAIParaphraser) {
		if url != "" {
			p.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(p *OpenAIParaphraser) { p.client = c }
}

// NewOpenAIParaphraser creates a paraphraser for OpenAI's chat models.
func NewOpenAIParaphraser(apiKey string, opts ...OpenAIOption) *OpenAIParaphraser {
	p := &OpenAIParaphraser{
		apiKey:      apiKey,
		model:       "gpt-4o-mini",
		baseURL:     "https://api.openai.com/v1",
		temperature: 0.7,
		maxTokens:   90,
		client:      &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Paraphrase asks the model for one reworded patient line. The returned text
// is flattened to a single line but otherwise unvalidated.
func (p *OpenAIParaphraser) Paraphrase(ctx context.Context, req Request) (Response, error) {
	if p.apiKey == "" {
		return Response{}, fmt.Errorf("no API key")
	}
	if strings.TrimSpace(req.RuleReply) == "" {
		return Response{}, fmt.Errorf("missing rule reply")
	}

	reqBody := chatRequest{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req)},
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Response{}, fmt.Errorf("marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return Response{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Response{}, fmt.Errorf("openai chat %d: %s", resp.StatusCode, string(body[:min(len(body), 200)]))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return Response{}, fmt.Errorf("decode: %w", err)
	}
	if len(chat.Choices) == 0 {
		return Response{}, ErrNoReply
	}
	out := flatten(chat.Choices[0].Message.Content)
	if out == "" {
		return Response{}, ErrNoReply
	}
	return Response{OK: true, Reply: out}, nil
}

// --- OpenAI chat API types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}
