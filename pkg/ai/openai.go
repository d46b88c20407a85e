package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIConfig defines configuration options for the OpenAI-compatible
// generator. BaseURL may point at any server speaking the chat-completions
// protocol, including local inference gateways.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration // per attempt
	MaxRetries  int
	Backoff     time.Duration
	Logger      zerolog.Logger
}

// OpenAIGenerator implements Generator against the chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGenerator builds a generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
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

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/guru-go-api/pkg/ai/openai"),
		logger: logger.With().Str("component", "openai_generator").Logger(),
	}, nil
}

// Generate sends the prompt through the chat completion API with the same
// retry semantics as the Ollama client.
func (g *OpenAIGenerator) Generate(parent context.Context, prompt Prompt) (RawResponse, error) {
	ctx, span := g.tracer.Start(parent, "openai.generate", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	start := time.Now()
	attempts := 0
	kind := ErrUnavailable
	var lastErr error

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			generationRetries.WithLabelValues(g.cfg.Model).Inc()
			delay := g.cfg.Backoff << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-parent.Done():
				span.SetStatus(codes.Error, "cancelled")
				return RawResponse{}, parent.Err()
			}
		}

		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		resp, err := g.client.CreateChatCompletion(attemptCtx, request)
		cancel()

		if err == nil {
			if len(resp.Choices) == 0 {
				kind = ErrProtocol
				lastErr = fmt.Errorf("no choices returned")
				break
			}
			latency := time.Since(start)
			generationDuration.WithLabelValues(g.cfg.Model).Observe(latency.Seconds())
			span.SetAttributes(attribute.Int("attempts", attempts))
			return RawResponse{
				Text:     strings.TrimSpace(resp.Choices[0].Message.Content),
				Model:    g.cfg.Model,
				Latency:  latency,
				Attempts: attempts,
			}, nil
		}

		lastErr = err
		kind = classifyOpenAIError(err)
		if parent.Err() != nil {
			span.SetStatus(codes.Error, "cancelled")
			return RawResponse{}, parent.Err()
		}
		if !errors.Is(kind, ErrUnavailable) && !errors.Is(kind, ErrTimeout) {
			break
		}
		g.logger.Warn().Err(err).Int("attempt", attempts).Msg("generation attempt failed")
	}

	latency := time.Since(start)
	generationFailures.WithLabelValues(g.cfg.Model, failureReason(kind)).Inc()
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, failureReason(kind))

	return RawResponse{}, &InferenceError{
		Kind:     kind,
		Attempts: attempts,
		Latency:  latency,
		Cause:    lastErr,
	}
}

func classifyOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= http.StatusInternalServerError {
			return ErrUnavailable
		}
		// A well-formed API error (bad model, bad request) will not improve
		// on retry.
		return ErrProtocol
	}

	return ErrUnavailable
}
