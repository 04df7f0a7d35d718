package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ErrUpstreamRate 上游限流（429），对外映射成 too many requests
var ErrUpstreamRate = errors.New("upstream rate limited")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Options struct {
	BaseURL      string // OpenAI 兼容端点，如 https://api.groq.com/openai/v1
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	MaxRetries   int
	Timeout      time.Duration
}

type Client struct {
	opt Options
	hc  *http.Client
	log *zap.Logger
}

func NewClient(opt Options, l *zap.Logger) *Client {
	if opt.MaxRetries < 1 {
		opt.MaxRetries = 1
	}
	return &Client{
		opt: opt,
		hc:  &http.Client{Timeout: opt.Timeout},
		log: l,
	}
}

type completionReq struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResp struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("upstream status %d", e.code)
	}
	return fmt.Sprintf("upstream status %d: %s", e.code, e.body)
}

// Complete 带指数退避重试地转发一轮对话。history 夹在 system 和本轮消息之间。
func (c *Client) Complete(ctx context.Context, message string, history []Message) (string, error) {
	msgs := make([]Message, 0, len(history)+2)
	if c.opt.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: "system", Content: c.opt.SystemPrompt})
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: "user", Content: message})

	body, err := json.Marshal(completionReq{
		Model:       c.opt.Model,
		Messages:    msgs,
		Temperature: c.opt.Temperature,
		MaxTokens:   c.opt.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	backoff := retry.WithMaxRetries(uint64(c.opt.MaxRetries-1), retry.NewExponential(2*time.Second))

	var reply string
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		r, e := c.once(ctx, body)
		if e == nil {
			reply = r
			return nil
		}
		c.log.Warn("chat upstream failed",
			zap.Int("attempt", attempt),
			zap.Int("max", c.opt.MaxRetries),
			zap.Error(e))
		if retryable(e) {
			return retry.RetryableError(e)
		}
		return e
	})
	return reply, err
}

func (c *Client) once(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.opt.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opt.APIKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return "", ErrUpstreamRate
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &statusError{code: resp.StatusCode, body: string(b)}
	}

	var out completionResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("upstream returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// retryable 网络错误、限流和 5xx 值得再试；其余 4xx 没救
func retryable(err error) bool {
	if errors.Is(err, ErrUpstreamRate) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
