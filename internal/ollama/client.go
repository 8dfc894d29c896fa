package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults for Config.
const (
	DefaultURL             = "http://localhost:11434"
	DefaultModel           = "llava"
	DefaultTagsTimeout     = 5 * time.Second
	DefaultGenerateTimeout = 20 * time.Minute
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 * 1024

// Config configures a Client. Zero values take the defaults above.
type Config struct {
	URL             string
	TagsTimeout     time.Duration
	GenerateTimeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to one Ollama server.
type Client struct {
	baseURL         string
	tagsTimeout     time.Duration
	generateTimeout time.Duration
	http            *http.Client
	logger          *slog.Logger
}

// NewClient creates a client. If logger is nil, a discard logger is used.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		baseURL:         strings.TrimRight(cfg.URL, "/"),
		tagsTimeout:     cfg.TagsTimeout,
		generateTimeout: cfg.GenerateTimeout,
		http:            cfg.HTTPClient,
		logger:          logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultURL
	}
	if c.tagsTimeout <= 0 {
		c.tagsTimeout = DefaultTagsTimeout
	}
	if c.generateTimeout <= 0 {
		c.generateTimeout = DefaultGenerateTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

// URL returns the server base URL.
func (c *Client) URL() string {
	return c.baseURL
}

// Model is an installed model as reported by /api/tags.
type Model struct {
	Name       string       `json:"name"`
	Size       int64        `json:"size"`
	ModifiedAt time.Time    `json:"modified_at"`
	Details    ModelDetails `json:"details"`
}

// ModelDetails holds the descriptive part of a tags entry.
type ModelDetails struct {
	Family            string `json:"family"`
	ParameterSize     string `json:"parameter_size"`
	QuantizationLevel string `json:"quantization_level"`
}

type tagsResponse struct {
	Models []Model `json:"models"`
}

// ListModels returns the models installed on the server.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	ctx, cancel := context.WithTimeout(ctx, c.tagsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("error checking Ollama models: %w", err)
	}
	return tags.Models, nil
}

// MatchModel reports whether an installed model name satisfies the requested one.
// "llava" matches "llava" and "llava:latest" but not "llava-phi3".
func MatchModel(requested, installed string) bool {
	return installed == requested || strings.HasPrefix(installed, requested+":")
}

// CheckModel verifies that model is installed. A missing model yields a
// *ModelNotFoundError listing what is available.
func (c *Client) CheckModel(ctx context.Context, model string) error {
	if strings.TrimSpace(model) == "" {
		return ErrNoModel
	}

	models, err := c.ListModels(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(models))
	for _, m := range models {
		if MatchModel(model, m.Name) {
			return nil
		}
		names = append(names, m.Name)
	}
	return &ModelNotFoundError{Model: model, Available: names}
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Images []string `json:"images,omitempty"`
}

// Generate streams a completion for req. onUpdate receives the cumulative text
// as chunks arrive. The returned text is the full response.
func (c *Client) Generate(ctx context.Context, req GenerateRequest, onUpdate func(full string)) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if strings.TrimSpace(req.Model) == "" {
		return "", ErrNoModel
	}
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	requestID := uuid.NewString()
	logger := c.logger.With(slog.String("request_id", requestID))
	logger.Debug("sending generate request",
		slog.String("model", req.Model),
		slog.Int("prompt_len", len(req.Prompt)),
		slog.Int("images", len(req.Images)))

	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Debug("generate request failed", slog.String("error", err.Error()))
		return "", c.transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	asm := &Assembler{OnUpdate: onUpdate}
	text, err := asm.Consume(resp.Body)
	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		logger.Debug("generate stream reported an error", slog.String("error", streamErr.Message))
		return text, err
	}
	if err != nil && !errors.Is(err, ErrNoResponse) {
		return text, c.transportError(err)
	}

	logger.Debug("generate request finished",
		slog.Int("response_len", len(text)),
		slog.Duration("elapsed", time.Since(start)))
	return text, err
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	httpErr := &HTTPError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}

	var body struct {
		Error string `json:"error"`
	}
	if json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body) == nil {
		httpErr.Message = body.Error
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return httpErr
}

// transportError maps low-level failures onto ErrTimeout and ErrUnreachable.
// Cancellation by the caller is passed through untouched.
func (c *Client) transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: make sure Ollama is running on %s", ErrUnreachable, c.baseURL)
	}
	return fmt.Errorf("ollama request failed: %w", err)
}
