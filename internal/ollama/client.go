package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const instrumentationName = "github.com/fyrsmithlabs/fixd/internal/ollama"

const (
	defaultHost        = "http://localhost:11434"
	defaultModel       = "llama3.2"
	defaultTemperature = 0.2
	defaultMaxTokens   = 1024
	defaultTimeout     = 120 * time.Second

	defaultRateLimit   = 2 // requests per second
	defaultBurst       = 4
	defaultMaxRetries  = 2
	defaultBaseBackoff = 500 * time.Millisecond
)

// Config configures the Ollama client.
type Config struct {
	// Host is the Ollama server base URL (default: http://localhost:11434).
	Host string

	// Model is the default model for completions.
	Model string

	// Temperature is the default sampling temperature.
	Temperature float64

	// MaxTokens is the default output token cap.
	MaxTokens int

	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for a local server.
func DefaultConfig() Config {
	return Config{
		Host:        defaultHost,
		Model:       defaultModel,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		Timeout:     defaultTimeout,
	}
}

// Client talks to a local Ollama server.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewClient creates an Ollama client. Zero config fields take defaults.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	def := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxRetries: defaultMaxRetries,
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
	}
}

// Model returns the configured default model name.
func (c *Client) Model() string { return c.config.Model }

// IsReachable reports whether the server answers at all.
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Host+"/api/version", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// ListLocalModels returns the names of models present on the server.
func (c *Client) ListLocalModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list models failed (%d): %s", resp.StatusCode, string(body))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to parse model list: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// EnsureModel pulls name unless it is already present locally. The pull
// streams progress events to onProgress (which may be nil). Idempotent.
func (c *Client) EnsureModel(ctx context.Context, name string, onProgress func(PullProgress)) error {
	ctx, span := c.tracer.Start(ctx, "ollama.ensure_model")
	defer span.End()
	span.SetAttributes(attribute.String("model", name))

	models, err := c.ListLocalModels(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	for _, m := range models {
		if modelNamesEqual(m, name) {
			return nil
		}
	}

	c.logger.Info("pulling model", zap.String("model", name))

	body, err := json.Marshal(pullRequest{Name: name, Stream: true})
	if err != nil {
		return fmt.Errorf("failed to marshal pull request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Host+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Pulls can far exceed the per-request timeout; use a bare client and
	// rely on ctx for cancellation from above.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("model pull failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("model pull failed (%d): %s", resp.StatusCode, string(respBody))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var event pullResponse
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if event.Error != "" {
			return fmt.Errorf("model pull failed: %s", event.Error)
		}
		if onProgress != nil {
			onProgress(PullProgress{
				Status:    event.Status,
				Completed: event.Completed,
				Total:     event.Total,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("model pull stream failed: %w", err)
	}
	return nil
}

// Complete generates a buffered completion. Transient failures are retried
// with exponential backoff inside this client only.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	ctx, span := c.tracer.Start(ctx, "ollama.complete")
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	req := c.buildGenerateRequest(prompt, opts, false)
	span.SetAttributes(attribute.String("model", req.Model))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := c.doGenerate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// CompleteStreaming generates a completion, delivering incremental chunks to
// onChunk and returning the full concatenation. The stream is consumed to
// completion before returning; chunks never outlive the call.
func (c *Client) CompleteStreaming(ctx context.Context, prompt string, opts Options, onChunk func(string)) (string, error) {
	ctx, span := c.tracer.Start(ctx, "ollama.complete_streaming")
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	req := c.buildGenerateRequest(prompt, opts, true)
	span.SetAttributes(attribute.String("model", req.Model))

	resp, err := c.postGenerate(ctx, req)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	defer resp.Body.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk generateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("generation failed: %s", chunk.Error)
		}
		if chunk.Response != "" {
			sb.WriteString(chunk.Response)
			if onChunk != nil {
				onChunk(chunk.Response)
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("generation stream failed: %w", err)
	}
	return sb.String(), nil
}

func (c *Client) buildGenerateRequest(prompt string, opts Options, stream bool) generateRequest {
	model := opts.Model
	if model == "" {
		model = c.config.Model
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = c.config.Temperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}
	return generateRequest{
		Model:  model,
		Prompt: prompt,
		System: opts.System,
		Stream: stream,
		Options: generateOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
		},
	}
}

func (c *Client) postGenerate(ctx context.Context, req generateRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("generate request failed: %w", err)}
	}
	if resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, string(respBody))}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("generate failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return resp, nil
}

func (c *Client) doGenerate(ctx context.Context, req generateRequest) (string, error) {
	resp, err := c.postGenerate(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if gen.Error != "" {
		return "", fmt.Errorf("generation failed: %s", gen.Error)
	}
	return gen.Response, nil
}

// isRetryableError reports whether err is transient.
func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// modelNamesEqual treats "name" and "name:latest" as the same model.
func modelNamesEqual(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimSuffix(s, ":latest")
	}
	return norm(a) == norm(b)
}
