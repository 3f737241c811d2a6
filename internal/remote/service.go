// Package remote talks to the chat service over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/varsilias/bubblechat/internal/chatclient"
	"github.com/varsilias/bubblechat/pkg/types"
)

// Service posts chat requests to a fixed endpoint.
// The HTTP client has no timeout: a hung service leaves the request pending until ctx ends.
type Service struct {
	endpoint string
	log      *slog.Logger
	client   *http.Client
}

func New(endpoint string, log *slog.Logger) *Service {
	return &Service{
		endpoint: endpoint,
		log:      log,
		client:   &http.Client{},
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (s *Service) WithHTTPClient(c *http.Client) *Service {
	s.client = c
	return s
}

// Chat sends one request and decodes the reply.
func (s *Service) Chat(ctx context.Context, in types.ChatRequest) (types.ChatResponse, error) {
	if in.History == nil {
		in.History = types.History{}
	}
	b, err := json.Marshal(in)
	if err != nil {
		return types.ChatResponse{}, errors.Wrap(err, "encode chat request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(b))
	if err != nil {
		return types.ChatResponse{}, errors.Wrap(err, "build chat request")
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	s.log.Debug("chat request", "req_id", reqID, "history", len(in.History))
	res, err := s.client.Do(req)
	if err != nil {
		return types.ChatResponse{}, errors.Wrap(err, "post chat")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return types.ChatResponse{}, errors.Wrap(err, "read chat response")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return types.ChatResponse{}, errors.Errorf("chat service status %d: %s", res.StatusCode, clip(body))
	}

	var out types.ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return types.ChatResponse{}, errors.Wrap(err, "decode chat response")
	}
	if out.Reply == nil {
		if out.Error != "" {
			return out, errors.Wrapf(chatclient.ErrNoReply, "service error: %s", out.Error)
		}
		return out, chatclient.ErrNoReply
	}
	return out, nil
}

// Options lists the role, style and length names the service knows about.
func (s *Service) Options(ctx context.Context) (Options, error) {
	var (
		opts Options
		err  error
	)
	if opts.Roles, err = s.names(ctx, "/chatbot_roles"); err != nil {
		return Options{}, err
	}
	if opts.Styles, err = s.names(ctx, "/chat_styles"); err != nil {
		return Options{}, err
	}
	if opts.Lengths, err = s.names(ctx, "/reply_length"); err != nil {
		return Options{}, err
	}
	return opts, nil
}

type Options struct {
	Roles   []string
	Styles  []string
	Lengths []string
}

// names fetches a catalog that sits next to the chat endpoint, e.g. /api/chat → /api/chatbot_roles.
func (s *Service) names(ctx context.Context, route string) ([]string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "parse endpoint")
	}
	u.Path = path.Join("/", path.Dir(u.Path), route)
	u.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build options request")
	}
	res, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", route)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, errors.Errorf("get %s: %s", route, res.Status)
	}

	var catalog map[string]string
	if err := json.NewDecoder(res.Body).Decode(&catalog); err != nil {
		return nil, errors.Wrapf(err, "decode %s", route)
	}
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func clip(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

var _ chatclient.Service = (*Service)(nil)
