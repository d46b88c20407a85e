package ai

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "guru",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of model generation requests",
	}, []string{"model"})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guru",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of failed model generation requests",
	}, []string{"model", "reason"})

	generationRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guru",
		Subsystem: "ai",
		Name:      "generation_retries_total",
		Help:      "Number of retried model generation attempts",
	}, []string{"model"})
)

// OllamaConfig defines configuration options for the Ollama client.
type OllamaConfig struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration // per attempt
	MaxRetries int
	Backoff    time.Duration // initial delay, doubled per retry
	Logger     zerolog.Logger
}

// OllamaClient implements Generator against the Ollama native generate API.
type OllamaClient struct {
	http   *http.Client
	cfg    OllamaConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOllamaClient builds a client using the provided configuration.
func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Model == "" {
		cfg.Model = "llama3:8b"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &OllamaClient{
		// The shared transport pools connections across concurrent calls.
		http:   &http.Client{},
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/guru-go-api/pkg/ai/ollama"),
		logger: logger.With().Str("component", "ollama_client").Logger(),
	}, nil
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate sends the prompt to Ollama, retrying transient failures with
// exponential backoff. The timeout applies per attempt; a well-formed error
// envelope from the server is not retried.
func (c *OllamaClient) Generate(parent context.Context, prompt Prompt) (RawResponse, error) {
	ctx, span := c.tracer.Start(parent, "ollama.generate", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	body, err := json.Marshal(ollamaRequest{
		Model:  c.cfg.Model,
		Prompt: prompt.User,
		System: prompt.System,
		Stream: false,
	})
	if err != nil {
		return RawResponse{}, fmt.Errorf("encode ollama request: %w", err)
	}

	start := time.Now()
	attempts := 0
	kind := ErrUnavailable
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			generationRetries.WithLabelValues(c.cfg.Model).Inc()
			delay := c.cfg.Backoff << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-parent.Done():
				span.SetStatus(codes.Error, "cancelled")
				return RawResponse{}, parent.Err()
			}
		}

		attempts++
		text, attemptErr := c.attempt(ctx, body)
		if attemptErr == nil {
			latency := time.Since(start)
			generationDuration.WithLabelValues(c.cfg.Model).Observe(latency.Seconds())
			span.SetAttributes(attribute.Int("attempts", attempts))
			c.logger.Debug().
				Int("attempts", attempts).
				Dur("latency", latency).
				Msg("generation succeeded")
			return RawResponse{
				Text:     text,
				Model:    c.cfg.Model,
				Latency:  latency,
				Attempts: attempts,
			}, nil
		}

		lastErr = attemptErr
		kind = classifyAttempt(attemptErr)
		if parent.Err() != nil {
			span.SetStatus(codes.Error, "cancelled")
			return RawResponse{}, parent.Err()
		}
		if !errors.Is(kind, ErrUnavailable) && !errors.Is(kind, ErrTimeout) {
			break
		}
		c.logger.Warn().
			Err(attemptErr).
			Int("attempt", attempts).
			Msg("generation attempt failed")
	}

	latency := time.Since(start)
	generationFailures.WithLabelValues(c.cfg.Model, failureReason(kind)).Inc()
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, failureReason(kind))

	return RawResponse{}, &InferenceError{
		Kind:     kind,
		Attempts: attempts,
		Latency:  latency,
		Cause:    lastErr,
	}
}

// attempt performs a single HTTP call. Failures are wrapped in the matching
// transport sentinel so the retry loop can classify them with errors.Is.
func (c *OllamaClient) attempt(parent context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(parent, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("%w: ollama returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded ollamaResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode ollama response: %v", ErrProtocol, err)
	}

	// Client errors carry a structured error message (e.g. unknown model).
	// Retrying cannot change that outcome.
	if resp.StatusCode >= http.StatusBadRequest || decoded.Error != "" {
		message := decoded.Error
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %s", ErrProtocol, message)
	}

	if decoded.Response == "" {
		return "", fmt.Errorf("%w: empty response field", ErrProtocol)
	}

	return decoded.Response, nil
}

func classifyAttempt(err error) error {
	switch {
	case errors.Is(err, ErrTimeout):
		return ErrTimeout
	case errors.Is(err, ErrProtocol):
		return ErrProtocol
	default:
		return ErrUnavailable
	}
}

func failureReason(kind error) string {
	switch {
	case errors.Is(kind, ErrTimeout):
		return "timeout"
	case errors.Is(kind, ErrProtocol):
		return "protocol"
	default:
		return "unavailable"
	}
}
