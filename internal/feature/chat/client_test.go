package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string, maxRetries int) *Client {
	return NewClient(Options{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		Model:        "test-model",
		SystemPrompt: "be kind",
		Temperature:  0.8,
		MaxTokens:    64,
		MaxRetries:   maxRetries,
		Timeout:      5 * time.Second,
	}, zap.NewNop())
}

func completionJSON(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + jsonStr(content) + `}}]}`
}

func jsonStr(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestCompleteSuccess(t *testing.T) {
	var gotReq completionReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(completionJSON("hello there")))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 1)
	reply, err := c.Complete(context.Background(), "hi", []Message{{Role: "user", Content: "earlier"}})
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)

	// system + history + 本轮消息，顺序固定
	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "earlier", gotReq.Messages[1].Content)
	assert.Equal(t, "hi", gotReq.Messages[2].Content)
}

func TestCompleteRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(completionJSON("recovered")))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 2)
	reply, err := c.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteNoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad payload"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	_, err := c.Complete(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteUpstreamRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 1)
	_, err := c.Complete(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrUpstreamRate)
}

func TestLocalGuard(t *testing.T) {
	g := NewLocalGuard(time.Hour)

	ok, err := g.Allow(context.Background(), "user:1")
	require.NoError(t, err)
	assert.True(t, ok)

	// 间隔内第二次被拦
	ok, err = g.Allow(context.Background(), "user:1")
	require.NoError(t, err)
	assert.False(t, ok)

	// 不同调用者互不影响
	ok, err = g.Allow(context.Background(), "user:2")
	require.NoError(t, err)
	assert.True(t, ok)
}
