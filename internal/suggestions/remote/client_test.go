package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var threeGood = []string{
	"Write a 1,200-word blog post about indoor cats for first-time owners, with five practical enrichment tips",
	"Draft a humorous listicle on cat behaviour quirks aimed at millennials, each item backed by a vet-approved fact",
	"Create an SEO-focused blog outline about adopting senior cats, including keywords, headings and a closing CTA",
}

func completionBody(t *testing.T, content string) []byte {
	t.Helper()
	b, err := json.Marshal(openai.ChatCompletionResponse{
		ID:    "chatcmpl-test",
		Model: "test-model",
		Choices: []openai.ChatCompletionChoice{{
			Index:        0,
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: openai.FinishReasonStop,
		}},
	})
	require.NoError(t, err)
	return b
}

func jsonArray(t *testing.T, items []string) string {
	t.Helper()
	b, err := json.Marshal(items)
	require.NoError(t, err)
	return string(b)
}

// newTestClient points a client at a fake OpenAI-compatible server.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Provider:          "custom",
		BaseURL:           server.URL + "/v1",
		Model:             "test-model",
		APIKey:            "test-key",
		Timeout:           2 * time.Second,
		RetryDelay:        time.Millisecond,
		RequestsPerSecond: 1000,
		Burst:             10,
	})
	require.NoError(t, err)
	return client, &calls
}

func TestTryRemote_Success(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Contains(t, req.Messages[1].Content, "write a blog post about cats")
			assert.Contains(t, req.Messages[1].Content, "pets")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(completionBody(t, "```json\n"+jsonArray(t, threeGood)+"\n```"))
	})

	out := client.TryRemote(context.Background(), "write a blog post about cats", []string{"pets"})
	assert.True(t, out.OK())
	assert.Equal(t, threeGood, out.Suggestions)
	assert.Equal(t, 1, out.Attempts)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestTryRemote_Disabled(t *testing.T) {
	client, err := NewClient(Config{})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	out := client.TryRemote(context.Background(), "anything", nil)
	assert.Equal(t, ReasonDisabled, out.Reason)
	assert.Empty(t, out.Suggestions)
	assert.Equal(t, 0, out.Attempts)
}

func TestTryRemote_Malformed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionBody(t, `["Write a 1,200-word blog post about indoor cats for first-time`))
	})

	out := client.TryRemote(context.Background(), "cats", nil)
	assert.Equal(t, ReasonMalformed, out.Reason)
	assert.Empty(t, out.Suggestions)
	assert.Error(t, out.Err)
}

func TestTryRemote_Insufficient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionBody(t, jsonArray(t, []string{threeGood[0], "too short", threeGood[1]})))
	})

	out := client.TryRemote(context.Background(), "cats", nil)
	assert.Equal(t, ReasonInsufficient, out.Reason)
	assert.Equal(t, []string{threeGood[0], threeGood[1]}, out.Suggestions)
}

func TestTryRemote_QuotaRetriedOnce(t *testing.T) {
	var n int32
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"Resource has been exhausted (e.g. check quota).","type":"rate_limit_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionBody(t, jsonArray(t, threeGood)))
	})

	out := client.TryRemote(context.Background(), "cats", nil)
	assert.True(t, out.OK())
	assert.Equal(t, 2, out.Attempts)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestTryRemote_QuotaTwiceGivesUp(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit_error"}}`))
	})

	out := client.TryRemote(context.Background(), "cats", nil)
	assert.Equal(t, ReasonQuota, out.Reason)
	assert.Equal(t, maxAttempts, out.Attempts)
	assert.EqualValues(t, maxAttempts, atomic.LoadInt32(calls))
}

func TestTryRemote_ServerErrorNotRetried(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"internal failure","type":"server_error"}}`))
	})

	out := client.TryRemote(context.Background(), "cats", nil)
	assert.Equal(t, ReasonTransient, out.Reason)
	assert.Equal(t, 1, out.Attempts)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestTryRemote_Timeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client.cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	out := client.TryRemote(context.Background(), "cats", nil)
	assert.Equal(t, ReasonTransient, out.Reason)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTryRemote_IgnoresCallerCancellation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionBody(t, jsonArray(t, threeGood)))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := client.TryRemote(ctx, "cats", nil)
	assert.True(t, out.OK())
}

type stubCompleter struct {
	err   error
	calls int
}

func (s *stubCompleter) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls++
	return openai.ChatCompletionResponse{}, s.err
}

func TestTryRemote_QuotaMessageWithoutStatus(t *testing.T) {
	stub := &stubCompleter{err: errors.New("upstream says: Rate Limit reached for requests")}
	client, err := NewClient(Config{RetryDelay: time.Millisecond})
	require.NoError(t, err)
	client.api = stub

	var slept time.Duration
	client.sleep = func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	out := client.TryRemote(context.Background(), "cats", nil)
	assert.Equal(t, ReasonQuota, out.Reason)
	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, time.Millisecond, slept)
}

func TestTryRemote_EmptyChoices(t *testing.T) {
	stub := &stubCompleter{}
	client, err := NewClient(Config{})
	require.NoError(t, err)
	client.api = stub

	out := client.TryRemote(context.Background(), "cats", nil)
	assert.Equal(t, ReasonTransient, out.Reason)
	assert.ErrorIs(t, out.Err, errEmptyResponse)
	assert.Equal(t, 1, stub.calls)
}

func TestIsQuotaError(t *testing.T) {
	assert.False(t, IsQuotaError(nil))
	assert.True(t, IsQuotaError(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}))
	assert.True(t, IsQuotaError(&openai.RequestError{HTTPStatusCode: http.StatusTooManyRequests, Err: errors.New("x")}))
	assert.True(t, IsQuotaError(errors.New("You exceeded your current QUOTA")))
	assert.True(t, IsQuotaError(errors.New("rate limit reached")))
	assert.False(t, IsQuotaError(&openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "bad"}))
	assert.False(t, IsQuotaError(errors.New("connection refused")))
}

func TestNewClient_ProviderDefaults(t *testing.T) {
	gemini, err := NewClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, gemini.Provider())
	assert.Equal(t, geminiModel, gemini.Model())
	assert.True(t, gemini.Enabled())

	oa, err := NewClient(Config{APIKey: "k", Provider: ProviderOpenAI})
	require.NoError(t, err)
	assert.Equal(t, openAIModel, oa.Model())

	_, err = NewClient(Config{APIKey: "k", Provider: "custom"})
	assert.Error(t, err)
}

func TestBuildInstruction(t *testing.T) {
	got := BuildInstruction("  write a poem  ", []string{"love", " "}, 50)
	assert.Contains(t, got, `Original prompt: "write a poem"`)
	assert.Contains(t, got, "Context tags: love")
	assert.Contains(t, got, "JSON array of exactly 3 strings")
	assert.Contains(t, got, "longer than 50 characters")

	noTags := BuildInstruction("write a poem", nil, 50)
	assert.False(t, strings.Contains(noTags, "Context tags"))
}
