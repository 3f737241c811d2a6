package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/varsilias/bubblechat/pkg/types"
)

type Client struct {
	baseURL string
	log     *slog.Logger
	client  *http.Client
}

type TagModel struct {
	Name       string    `json:"name"`
	Model      string    `json:"model"`
	Digest     string    `json:"digest"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		client:  &http.Client{Timeout: 240 * time.Second}, // cold model loads are slow
	}
}

func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/version", c.baseURL), nil)
	if err != nil {
		return errors.Wrap(err, "build ping request")
	}
	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	data, _ := io.ReadAll(res.Body)
	res.Body.Close()
	c.log.Debug("ollama ping", "response", string(data))
	if res.StatusCode >= 400 {
		return errors.Errorf("ollama ping status: %d", res.StatusCode)
	}
	return nil
}

// Chat sends a full message list to /api/chat (non-stream) and returns the assistant text.
func (c *Client) Chat(ctx context.Context, model string, messages []types.Message) (string, time.Duration, error) {
	payload := map[string]any{"model": model, "messages": messages, "stream": false}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", 0, errors.Wrap(err, "encode ollama chat")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/chat", c.baseURL), bytes.NewReader(b))
	if err != nil {
		return "", 0, errors.Wrap(err, "build ollama chat")
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(res.Body)
		return "", 0, errors.Errorf("ollama chat: %s", string(body))
	}
	var out struct {
		Message types.Message `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", 0, errors.Wrap(err, "decode ollama chat")
	}
	return out.Message.Content, time.Since(start), nil
}

// Tags lists local models via GET /api/tags.
func (c *Client) Tags(ctx context.Context) ([]TagModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/tags", c.baseURL), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build tags request")
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, errors.Errorf("ollama tags: %s", res.Status)
	}
	var out struct {
		Models []TagModel `json:"models"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// HasModel reports whether model is pulled locally.
func (c *Client) HasModel(ctx context.Context, model string) (bool, error) {
	tags, err := c.Tags(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tags {
		if t.Name == model || strings.TrimSuffix(t.Name, ":latest") == model {
			return true, nil
		}
	}
	return false, nil
}

// WaitReady polls until the API answers and every named model is present, or ctx ends.
func (c *Client) WaitReady(ctx context.Context, models []string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() error {
		if err := c.Ping(ctx); err != nil {
			return errors.Wrap(err, "ollama not reachable")
		}
		for _, m := range models {
			ok, err := c.HasModel(ctx, m)
			if err != nil {
				return errors.Wrap(err, "list tags")
			}
			if !ok {
				return errors.Errorf("model not present yet: %s", m)
			}
		}
		return nil
	}

	// last keeps the most recent failure that was not caused by ctx itself ending.
	var last error
	err := check()
	for err != nil {
		if last == nil || ctx.Err() == nil {
			last = err
		}
		c.log.Debug("ollama not ready", "err", err)
		select {
		case <-ctx.Done():
			return errors.Wrapf(last, "wait for ollama: %v", ctx.Err())
		case <-ticker.C:
			err = check()
		}
	}
	return nil
}
