// v1
// internal/oracle/client.go
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ecocampus/analyzer/internal/breaker"
	"ecocampus/analyzer/internal/campus"
	"ecocampus/analyzer/internal/metrics"
)

// Options configures the HTTP client for an OpenAI-compatible chat
// completions endpoint.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration

	Breaker breaker.Config
	Metrics *metrics.Metrics
}

// Client calls a chat-completions style endpoint, guarded by a circuit
// breaker so a dead service fast-fails instead of stalling every room
// pipeline in a batch.
type Client struct {
	opts Options
	h    *http.Client
	brk  *breaker.Breaker
	log  *slog.Logger
}

// NewClient wires the Oracle HTTP client. BaseURL and APIKey may be empty;
// Invoke then fails with ErrUnavailable and the pipeline runs deterministic
// paths only.
func NewClient(opts Options, log *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	h := &http.Client{Timeout: opts.Timeout}
	probe := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.BaseURL+"/models", nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+opts.APIKey)
		resp, err := h.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.CopyN(io.Discard, resp.Body, 64)
		if resp.StatusCode >= 200 && resp.StatusCode < 500 {
			return nil
		}
		return fmt.Errorf("probe_bad_status: %d", resp.StatusCode)
	}
	return &Client{
		opts: opts,
		h:    h,
		brk:  breaker.New("oracle", opts.Breaker, log, probe),
		log:  log.With("component", "oracle"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Invoke sends the accumulated conversation plus the new prompt and returns
// the assistant's reply text.
func (c *Client) Invoke(ctx context.Context, prompt string, prior []campus.Turn) (string, error) {
	if c.opts.BaseURL == "" || c.opts.APIKey == "" {
		return "", fmt.Errorf("oracle not configured: %w", ErrUnavailable)
	}

	msgs := make([]chatMessage, 0, len(prior)+1)
	for _, t := range prior {
		msgs = append(msgs, chatMessage{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.opts.Model,
		Messages:    msgs,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", err
	}

	start := time.Now()
	var text string
	err = c.brk.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

		resp, err := c.h.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(b))
		}

		var parsed chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
			return fmt.Errorf("%w: empty choices", ErrMalformed)
		}
		text = parsed.Choices[0].Message.Content
		return nil
	})
	c.opts.Metrics.OracleCall(time.Since(start), err)
	if err != nil {
		if errors.Is(err, breaker.ErrOpen) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return "", err
	}
	return text, nil
}
