package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// DefaultModel is the default model for production use.
	DefaultModel = "gpt-5"

	// ModelMini is a smaller, faster model for testing.
	ModelMini = "gpt-5-mini"

	// ModelNano is the smallest model, ideal for cost-effective testing.
	ModelNano = "gpt-5-nano"

	// DefaultMaxTokens must cover both reasoning and output tokens for the
	// gpt-5 family, so it is larger than the expected story length.
	DefaultMaxTokens = 4096

	responsesURL = "https://api.openai.com/v1/responses"
)

// Client is the completion service consumed by the send pipeline. Both
// variants accept the same message-ordering contract (see BuildInput).
type Client interface {
	Complete(ctx context.Context, message string, history []string) (string, error)
	CompleteStream(ctx context.Context, message string, history []string) (*Stream, error)
}

// OpenAIClient implements Client against the OpenAI Responses API. It is
// stateless per call; serializing calls per session is the pipeline's job.
type OpenAIClient struct {
	apiKey     string
	orgID      string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures an OpenAIClient.
type Option func(*OpenAIClient)

// WithModel sets the model to use.
func WithModel(model string) Option {
	return func(c *OpenAIClient) { c.model = model }
}

// WithMaxTokens sets the maximum output tokens.
func WithMaxTokens(tokens int) Option {
	return func(c *OpenAIClient) { c.maxTokens = tokens }
}

// WithOrgID sets the organization ID for project-scoped keys.
func WithOrgID(orgID string) Option {
	return func(c *OpenAIClient) { c.orgID = orgID }
}

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(url string) Option {
	return func(c *OpenAIClient) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *OpenAIClient) { c.httpClient = hc }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *OpenAIClient) { c.logger = logger }
}

// NewClient creates a client with the given API key and options.
func NewClient(apiKey string, opts ...Option) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:     apiKey,
		model:      DefaultModel,
		maxTokens:  DefaultMaxTokens,
		baseURL:    responsesURL,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type responsesRequest struct {
	Model     string    `json:"model"`
	Input     []Message `json:"input"`
	Stream    bool      `json:"stream,omitempty"`
	MaxTokens int       `json:"max_output_tokens,omitempty"`
}

func (c *OpenAIClient) newRequest(ctx context.Context, message string, history []string, stream bool) (*http.Request, error) {
	body, err := json.Marshal(responsesRequest{
		Model:     c.model,
		Input:     BuildInput(message, history),
		Stream:    stream,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if c.orgID != "" {
		req.Header.Set("OpenAI-Organization", c.orgID)
	}
	return req, nil
}

// Complete sends the conversation and returns the full response text.
func (c *OpenAIClient) Complete(ctx context.Context, message string, history []string) (string, error) {
	req, err := c.newRequest(ctx, message, history, false)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion API status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		ID     string `json:"id"`
		Output []struct {
			Type    string `json:"type"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	c.logger.Debug("completion received",
		"response_id", result.ID,
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
	)

	for _, output := range result.Output {
		if output.Type != "message" {
			continue
		}
		for _, content := range output.Content {
			if content.Type == "output_text" || content.Type == "text" {
				return content.Text, nil
			}
		}
	}
	return "", nil
}

// CompleteStream sends the conversation and returns a stream of response
// fragments. The stream closes cleanly only after the upstream completion
// signal; an early connection end surfaces as ErrTruncated.
func (c *OpenAIClient) CompleteStream(ctx context.Context, message string, history []string) (*Stream, error) {
	req, err := c.newRequest(ctx, message, history, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("completion API status %d: %s", resp.StatusCode, string(body))
	}

	stream, producer := NewStream(100)
	go c.pump(ctx, resp.Body, producer)
	return stream, nil
}

// pump forwards SSE text deltas to the producer until the upstream signals
// completion or the connection drops.
func (c *OpenAIClient) pump(ctx context.Context, body io.ReadCloser, producer *StreamProducer) {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if data == "[DONE]" {
			producer.Close(nil)
			return
		}

		var event struct {
			Type  string `json:"type"`
			Delta string `json:"delta"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			c.logger.Debug("unparseable stream event", "data", data)
			continue
		}
		switch event.Type {
		case "response.completed":
			producer.Close(nil)
			return
		case "response.output_text.delta":
			if event.Delta == "" {
				continue
			}
			if !producer.Send(ctx, event.Delta) {
				// consumer gone; stop reading, no error
				producer.Close(ctx.Err())
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		c.logger.Error("stream read failed", "error", err)
		producer.Close(fmt.Errorf("read stream: %w", err))
		return
	}
	// connection ended without a completion signal
	producer.Close(ErrTruncated)
}
