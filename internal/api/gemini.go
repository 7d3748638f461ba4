package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	apierrors "github.com/diogo/tripchat/internal/errors"
	"github.com/diogo/tripchat/internal/models"
)

const geminiEndpoint = "generativelanguage.googleapis.com"

// GeminiClient streams replies from the Gemini API
type GeminiClient struct {
	opts   clientOptions
	client *genai.Client
	mu     sync.RWMutex
	closed bool
}

// NewGeminiClient creates a new GeminiClient
func NewGeminiClient(ctx context.Context, opts ...ClientOption) (*GeminiClient, error) {
	o := buildOptions(models.DefaultGeminiModelName, opts)
	if o.apiKey == "" {
		return nil, apierrors.ErrNoAPIKey
	}

	cc := &genai.ClientConfig{
		APIKey:  o.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if o.baseURL != "" {
		cc.HTTPOptions.BaseURL = o.baseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{opts: o, client: client}, nil
}

// Model returns the default model
func (c *GeminiClient) Model() string {
	return c.opts.model
}

// Close marks the client closed
func (c *GeminiClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// IsClosed returns whether the client is closed
func (c *GeminiClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func toGeminiContents(msgs []models.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

func (c *GeminiClient) generateConfig(req *ChatRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	temp := req.Temperature
	if temp <= 0 {
		temp = c.opts.temperature
	}
	if temp > 0 {
		t := float32(temp)
		cfg.Temperature = &t
	}
	return cfg
}

// StreamChat sends the thread and streams the reply
func (c *GeminiClient) StreamChat(ctx context.Context, req *ChatRequest) <-chan StreamEvent {
	ch := make(chan StreamEvent, 16)

	go func() {
		defer close(ch)

		if c.opts.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
			defer cancel()
		}
		out := emitter{ctx: ctx, ch: ch}

		start := time.Now()
		reply, err := c.stream(ctx, req, out)
		if err != nil {
			c.opts.logger.Warn("stream failed",
				zap.String("endpoint", geminiEndpoint),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			out.send(StreamEvent{Err: err})
			return
		}

		c.opts.logger.Debug("stream finished",
			zap.String("model", reply.Model),
			zap.String("finish_reason", reply.FinishReason),
			zap.Int("length", len(reply.Text)),
			zap.Duration("elapsed", time.Since(start)))
		out.send(StreamEvent{Reply: reply})
	}()

	return ch
}

func (c *GeminiClient) stream(ctx context.Context, req *ChatRequest, out emitter) (*models.Reply, error) {
	if c.IsClosed() {
		return nil, apierrors.ErrClientClosed
	}
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("chat request has no messages")
	}

	model := req.Model
	if model == "" {
		model = c.opts.model
	}

	c.opts.logger.Debug("stream started",
		zap.String("endpoint", geminiEndpoint),
		zap.String("model", model),
		zap.Int("messages", len(req.Messages)))

	var (
		text  strings.Builder
		reply = models.Reply{Model: model}
	)

	for resp, err := range c.client.Models.GenerateContentStream(ctx, model, toGeminiContents(req.Messages), c.generateConfig(req)) {
		if err != nil {
			return nil, mapGeminiError(ctx, err)
		}
		if resp == nil {
			continue
		}

		if delta := resp.Text(); delta != "" {
			text.WriteString(delta)
			if !out.send(StreamEvent{Delta: delta}) {
				return nil, apierrors.FromTransport("stream content", geminiEndpoint, ctx.Err())
			}
		}
		if resp.ModelVersion != "" {
			reply.Model = resp.ModelVersion
		}
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			reply.FinishReason = string(resp.Candidates[0].FinishReason)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, apierrors.FromTransport("stream content", geminiEndpoint, err)
	}

	reply.Text = text.String()
	if reply.Text == "" {
		return nil, apierrors.ErrNoContent
	}
	return &reply, nil
}

// mapGeminiError converts SDK errors into the package's typed errors
func mapGeminiError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apierrors.FromStatus(apiErr.Code, geminiEndpoint, apiErr.Message)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return apierrors.FromTransport("stream content", geminiEndpoint, ctxErr)
	}
	return apierrors.FromTransport("stream content", geminiEndpoint, err)
}
