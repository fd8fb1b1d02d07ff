// Package remote asks an OpenAI-compatible chat model for prompt suggestions.
// It never returns an error to its caller: every call yields an Outcome that
// says how many usable suggestions came back and, if not three, why.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/promptpal/promptpal-backend/internal/suggestions/domain"
)

// FailureReason classifies why a remote attempt produced fewer than three
// suggestions. ReasonNone means it produced all three.
type FailureReason string

const (
	ReasonNone         FailureReason = ""
	ReasonDisabled     FailureReason = "disabled"
	ReasonQuota        FailureReason = "quota"
	ReasonTransient    FailureReason = "transient"
	ReasonMalformed    FailureReason = "malformed"
	ReasonInsufficient FailureReason = "insufficient"
)

// Outcome is the result of one TryRemote call.
type Outcome struct {
	Suggestions []string
	Reason      FailureReason
	Attempts    int
	Err         error // informational, never needs handling
}

// OK reports whether the model returned a full set of suggestions.
func (o Outcome) OK() bool {
	return o.Reason == ReasonNone
}

// Suggester is what the orchestrator depends on.
type Suggester interface {
	TryRemote(ctx context.Context, promptText string, tags []string) Outcome
	Enabled() bool
}

// Provider defaults for OpenAI-compatible endpoints.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	geminiModel   = "gemini-2.0-flash"
	openAIModel   = "gpt-4o-mini"
)

const maxAttempts = 2 // the first call plus one retry on quota errors

// Config configures the remote client.
type Config struct {
	Provider          string
	BaseURL           string
	Model             string
	APIKey            string
	Timeout           time.Duration // per attempt
	RetryDelay        time.Duration // pause before the single quota retry
	MinLength         int           // suggestions must be longer than this
	RequestsPerSecond float64       // outbound pacing
	Burst             int
	MaxTokens         int
	Temperature       float32
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.MinLength <= 0 {
		c.MinLength = 50
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 2
	}
	if c.Burst <= 0 {
		c.Burst = 4
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 600
	}
	if c.Temperature == 0 {
		c.Temperature = 0.8
	}
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client implements Suggester on top of go-openai.
type Client struct {
	api     chatCompleter
	cfg     Config
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client. Without an API key the client is disabled and
// TryRemote returns immediately.
func NewClient(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	c := &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		sleep:   sleepContext,
	}
	if cfg.APIKey == "" {
		return c, nil
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	switch cfg.Provider {
	case ProviderGemini, "":
		c.cfg.Provider = ProviderGemini
		clientConfig.BaseURL = geminiBaseURL
		if c.cfg.Model == "" {
			c.cfg.Model = geminiModel
		}
	case ProviderOpenAI:
		if c.cfg.Model == "" {
			c.cfg.Model = openAIModel
		}
	default:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("remote provider %q requires a base URL", cfg.Provider)
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("remote provider %q requires a model", cfg.Provider)
		}
	}
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = newHTTPClient(cfg.Timeout)

	c.api = openai.NewClientWithConfig(clientConfig)
	return c, nil
}

// Enabled reports whether remote calls will be attempted.
func (c *Client) Enabled() bool {
	return c.api != nil
}

// Provider returns the configured provider name.
func (c *Client) Provider() string { return c.cfg.Provider }

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// TryRemote asks the model for suggestions. Quota errors are retried once
// after RetryDelay; anything else fails straight away. The call is detached
// from the caller's cancellation and bounded by the per-attempt timeout.
func (c *Client) TryRemote(ctx context.Context, promptText string, tags []string) Outcome {
	if !c.Enabled() {
		return Outcome{Reason: ReasonDisabled}
	}

	ctx = context.WithoutCancel(ctx)
	instruction := BuildInstruction(promptText, tags, c.cfg.MinLength)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := c.complete(ctx, instruction)
		if err == nil {
			return c.outcomeFromText(text, attempt)
		}
		lastErr = err

		if !IsQuotaError(err) {
			return Outcome{Reason: ReasonTransient, Attempts: attempt, Err: err}
		}
		if attempt == maxAttempts {
			break
		}

		log.Debug("remote: quota error, retrying once", "delay", c.cfg.RetryDelay, "error", err)
		if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
			return Outcome{Reason: ReasonTransient, Attempts: attempt, Err: err}
		}
	}

	return Outcome{Reason: ReasonQuota, Attempts: maxAttempts, Err: lastErr}
}

func (c *Client) complete(ctx context.Context, instruction string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("outbound limiter: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: instruction},
		},
	}
	if c.cfg.Provider == ProviderOpenAI {
		req.PresencePenalty = 0.6
		req.FrequencyPenalty = 0.6
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("remote chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

var errEmptyResponse = errors.New("remote returned no choices")

func (c *Client) outcomeFromText(text string, attempts int) Outcome {
	log.Debug("remote: raw response", "length", len(text), "attempts", attempts)

	suggestions, err := ParseSuggestions(text, c.cfg.MinLength, domain.SuggestionCount)
	if err != nil {
		return Outcome{Reason: ReasonMalformed, Attempts: attempts, Err: err}
	}
	if len(suggestions) < domain.SuggestionCount {
		return Outcome{
			Suggestions: suggestions,
			Reason:      ReasonInsufficient,
			Attempts:    attempts,
			Err:         fmt.Errorf("only %d of %d suggestions qualified", len(suggestions), domain.SuggestionCount),
		}
	}
	return Outcome{Suggestions: suggestions, Attempts: attempts}
}

// IsQuotaError reports whether err means the remote refused for quota or rate
// reasons: HTTP 429, or a message mentioning quota or rate limit.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
