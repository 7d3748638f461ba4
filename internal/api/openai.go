package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	apierrors "github.com/diogo/tripchat/internal/errors"
	"github.com/diogo/tripchat/internal/models"
)

// HTTPClient is the part of tls_client.HttpClient the transport needs
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// itineraryToolName is the function the model calls with a structured plan
const itineraryToolName = "show_itinerary"

// toolOnlyText stands in for the reply text when the model only called the tool
const toolOnlyText = "I've put together an itinerary for you."

// OpenAIClient streams replies from an OpenAI-compatible /chat/completions endpoint
type OpenAIClient struct {
	opts   clientOptions
	mu     sync.RWMutex
	closed bool
}

// NewOpenAIClient creates a new OpenAIClient
func NewOpenAIClient(opts ...ClientOption) (*OpenAIClient, error) {
	o := buildOptions(models.DefaultOpenAIModelName, opts)
	if o.baseURL == "" {
		o.baseURL = models.EndpointOpenAI
	}

	if o.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(o.timeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}
		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		o.httpClient = httpClient
	}

	return &OpenAIClient{opts: o}, nil
}

// Model returns the default model
func (c *OpenAIClient) Model() string {
	return c.opts.model
}

// Endpoint returns the full completions URL
func (c *OpenAIClient) Endpoint() string {
	return c.opts.baseURL + models.ChatCompletionsPath
}

// Close marks the client closed. Streams already running are unaffected.
func (c *OpenAIClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// IsClosed returns whether the client is closed
func (c *OpenAIClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
	Tools       []wireTool    `json:"tools,omitempty"`
}

var itineraryTool = wireTool{
	Type: "function",
	Function: wireFunction{
		Name:        itineraryToolName,
		Description: "Show a day by day travel itinerary to the user. Call it whenever you produce an itinerary.",
		Parameters: json.RawMessage(`{"type":"object","properties":{` +
			`"title":{"type":"string"},"destination":{"type":"string"},"duration":{"type":"string"},` +
			`"days":{"type":"array","items":{"type":"object"}},"tips":{"type":"array","items":{"type":"string"}}},` +
			`"required":["days"]}`),
	},
}

func (c *OpenAIClient) buildBody(req *ChatRequest) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = c.opts.model
	}

	body := completionRequest{
		Model:  model,
		Stream: true,
	}

	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, wireMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, wireMessage{Role: string(m.Role), Content: m.Content})
	}

	temp := req.Temperature
	if temp <= 0 {
		temp = c.opts.temperature
	}
	if temp > 0 {
		body.Temperature = &temp
	}
	if c.opts.itineraryTool {
		body.Tools = []wireTool{itineraryTool}
	}

	return json.Marshal(body)
}

// StreamChat posts the thread and streams the reply
func (c *OpenAIClient) StreamChat(ctx context.Context, req *ChatRequest) <-chan StreamEvent {
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
				zap.String("endpoint", c.Endpoint()),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			out.send(StreamEvent{Err: err})
			return
		}

		c.opts.logger.Debug("stream finished",
			zap.String("model", reply.Model),
			zap.String("finish_reason", reply.FinishReason),
			zap.Int("length", len(reply.Text)),
			zap.Bool("structured", reply.HasStructured()),
			zap.Duration("elapsed", time.Since(start)))
		out.send(StreamEvent{Reply: reply})
	}()

	return ch
}

func (c *OpenAIClient) stream(ctx context.Context, req *ChatRequest, out emitter) (*models.Reply, error) {
	if c.IsClosed() {
		return nil, apierrors.ErrClientClosed
	}
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("chat request has no messages")
	}

	payload, err := c.buildBody(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	endpoint := c.Endpoint()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range models.DefaultHeaders() {
		httpReq.Header.Set(key, value)
	}
	if c.opts.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.opts.apiKey)
	}

	c.opts.logger.Debug("stream started",
		zap.String("endpoint", endpoint),
		zap.Int("messages", len(req.Messages)))

	resp, err := c.opts.httpClient.Do(httpReq)
	if err != nil {
		return nil, apierrors.FromTransport("chat completion", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Limit error body to 4KB
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apierrors.FromStatus(resp.StatusCode, endpoint, string(errorBody))
	}

	reply, err := readSSE(resp.Body, out)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apierrors.FromTransport("chat completion", endpoint, ctxErr)
		}
		return nil, err
	}
	if reply.Model == "" {
		reply.Model = req.Model
		if reply.Model == "" {
			reply.Model = c.opts.model
		}
	}
	return reply, nil
}

// readSSE consumes a chat completion event stream. Text fragments are
// forwarded as deltas; tool call arguments are collected into the
// structured payload.
func readSSE(body io.Reader, out emitter) (*models.Reply, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		text     strings.Builder
		toolArgs strings.Builder
		reply    models.Reply
	)
	toolIndex := int64(-1)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		if !gjson.Valid(data) {
			return nil, apierrors.NewParseError("invalid stream chunk", "data")
		}

		chunk := gjson.Parse(data)
		if e := chunk.Get("error"); e.Exists() {
			msg := e.Get("message").String()
			if msg == "" {
				msg = e.String()
			}
			return nil, apierrors.NewAPIError(int(e.Get("code").Int()), "", msg)
		}

		if m := chunk.Get("model").String(); m != "" {
			reply.Model = m
		}

		choice := chunk.Get("choices.0")
		if !choice.Exists() {
			continue
		}

		if delta := choice.Get("delta.content").String(); delta != "" {
			text.WriteString(delta)
			if !out.send(StreamEvent{Delta: delta}) {
				return nil, out.ctx.Err()
			}
		}

		choice.Get("delta.tool_calls").ForEach(func(_, call gjson.Result) bool {
			idx := call.Get("index").Int()
			if name := call.Get("function.name").String(); name != "" {
				if name != itineraryToolName {
					return true
				}
				if toolIndex < 0 {
					toolIndex = idx
				}
			}
			// argument chunks after the first carry only the index
			if idx == toolIndex {
				toolArgs.WriteString(call.Get("function.arguments").String())
			}
			return true
		})

		if fr := choice.Get("finish_reason"); fr.Type == gjson.String {
			reply.FinishReason = fr.String()
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, apierrors.NewNetworkError("read stream", err)
	}

	reply.Text = text.String()
	if args := strings.TrimSpace(toolArgs.String()); args != "" {
		reply.Structured = json.RawMessage(args)
		if strings.TrimSpace(reply.Text) == "" {
			reply.Text = toolOnlyText
		}
	}

	if reply.Text == "" && !reply.HasStructured() {
		return nil, apierrors.ErrNoContent
	}
	return &reply, nil
}
