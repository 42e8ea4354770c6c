// Package ollama adapts the generation and embedding boundaries to a local
// Ollama server. Generation and embedding models are fixed at construction;
// the embedding model must be the one the corpus was indexed with.
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

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
}

func New(baseURL, genModel, embedModel string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Generate runs one non-streaming chat completion and returns the full text.
func (c *Client) Generate(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	reqBody := map[string]any{
		"model":    c.genModel,
		"messages": toChatMessages(messages),
		"stream":   false,
	}

	resp, err := c.postJSON(ctx, "/api/chat", reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return parsed.Message.Content, nil
}

// GenerateStream opens one streaming chat session and relays every fragment
// to onDelta as it is decoded; no buffering beyond the in-flight fragment.
// An error from onDelta cancels the session. Returns the assembled full
// text once the server signals completion.
func (c *Client) GenerateStream(
	ctx context.Context,
	messages []domain.ChatMessage,
	onDelta func(string) error,
) (string, error) {
	reqBody := map[string]any{
		"model":    c.genModel,
		"messages": toChatMessages(messages),
		"stream":   true,
	}

	resp, err := c.postJSON(ctx, "/api/chat", reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	decoder := json.NewDecoder(resp.Body)
	for {
		var fragment chatResponse
		if err := decoder.Decode(&fragment); err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("chat stream ended without done marker")
			}
			return "", fmt.Errorf("decode chat stream: %w", err)
		}

		if fragment.Message.Content != "" {
			full.WriteString(fragment.Message.Content)
			if onDelta != nil {
				if err := onDelta(fragment.Message.Content); err != nil {
					return "", fmt.Errorf("relay delta: %w", err)
				}
			}
		}
		if fragment.Done {
			return full.String(), nil
		}
	}
}

// Embed returns one vector per input text, in order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"model": c.embedModel,
		"input": texts,
	}

	resp, err := c.postJSON(ctx, "/api/embed", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	return parsed.Embeddings, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody map[string]any) (*http.Response, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request %s: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &HTTPStatusError{
			Operation:  path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	return resp, nil
}

func toChatMessages(messages []domain.ChatMessage) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
