// Package api talks to hosted chat model endpoints and streams their
// replies back as events.
package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/tripchat/internal/config"
	apierrors "github.com/diogo/tripchat/internal/errors"
	"github.com/diogo/tripchat/internal/models"
)

// ChatRequest is one turn sent to the endpoint: the whole thread so far
type ChatRequest struct {
	Messages     []models.ChatMessage
	SystemPrompt string
	// Model and Temperature override the client defaults when set
	Model       string
	Temperature float64
}

// StreamEvent is emitted while a reply streams in. The last event of a
// stream carries either Reply or Err; the channel is closed after it.
type StreamEvent struct {
	Delta string
	Reply *models.Reply
	Err   error
}

// Client streams chat completions
type Client interface {
	StreamChat(ctx context.Context, req *ChatRequest) <-chan StreamEvent
	Model() string
	Close()
}

// Ensure the concrete clients implement Client
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*GeminiClient)(nil)
	_ Client = (*MockClient)(nil)
)

type clientOptions struct {
	model         string
	baseURL       string
	apiKey        string
	timeout       time.Duration
	temperature   float64
	httpClient    HTTPClient
	logger        *zap.Logger
	itineraryTool bool
}

// ClientOption is a function that configures a client
type ClientOption func(*clientOptions)

// WithModel sets the default model
func WithModel(model string) ClientOption {
	return func(o *clientOptions) {
		o.model = model
	}
}

// WithBaseURL points the client at another host
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAPIKey sets the bearer key
func WithAPIKey(key string) ClientOption {
	return func(o *clientOptions) {
		o.apiKey = key
	}
}

// WithTimeout bounds a whole request, stream included
func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithTemperature sets the default sampling temperature
func WithTemperature(t float64) ClientOption {
	return func(o *clientOptions) {
		o.temperature = t
	}
}

// WithHTTPClient replaces the HTTP client used by the OpenAI transport
func WithHTTPClient(c HTTPClient) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// WithLogger sets the logger for stream lifecycle events
func WithLogger(l *zap.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = l
	}
}

// WithItineraryTool asks OpenAI-compatible endpoints to return itineraries
// through a function call instead of text markers.
func WithItineraryTool(enabled bool) ClientOption {
	return func(o *clientOptions) {
		o.itineraryTool = enabled
	}
}

func buildOptions(defaultModel string, opts []ClientOption) clientOptions {
	o := clientOptions{
		model:   defaultModel,
		timeout: 120 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// NewClientFromConfig creates the client for the configured provider.
// apiKey must already be resolved (see config.ResolveAPIKey).
func NewClientFromConfig(ctx context.Context, cfg config.Config, apiKey string, logger *zap.Logger) (Client, error) {
	if apiKey == "" {
		return nil, apierrors.ErrNoAPIKey
	}

	opts := []ClientOption{
		WithModel(cfg.ModelName()),
		WithAPIKey(apiKey),
		WithTemperature(cfg.Temperature),
		WithLogger(logger),
		WithItineraryTool(cfg.StructuredItinerary),
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}

	switch cfg.ProviderOf() {
	case models.ProviderGemini:
		return NewGeminiClient(ctx, opts...)
	case models.ProviderOpenAI:
		return NewOpenAIClient(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// Collect drains a stream and returns its final reply. onDelta, when not
// nil, is called for every text fragment.
func Collect(events <-chan StreamEvent, onDelta func(string)) (*models.Reply, error) {
	var (
		reply *models.Reply
		err   error
	)
	for ev := range events {
		switch {
		case ev.Err != nil:
			err = ev.Err
		case ev.Reply != nil:
			reply = ev.Reply
		case ev.Delta != "" && onDelta != nil:
			onDelta(ev.Delta)
		}
	}
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, apierrors.ErrNoContent
	}
	return reply, nil
}

// emitter sends events until the consumer goes away
type emitter struct {
	ctx context.Context
	ch  chan<- StreamEvent
}

func (e emitter) send(ev StreamEvent) bool {
	select {
	case e.ch <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}
