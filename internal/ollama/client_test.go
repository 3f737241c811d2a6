package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/varsilias/bubblechat/internal/logging"
	"github.com/varsilias/bubblechat/pkg/types"
)

func newOllama(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"0.5.0"}`))
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"mistral:latest"},{"name":"phi3:mini"}]}`))
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Model    string          `json:"model"`
			Messages []types.Message `json:"messages"`
			Stream   bool            `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.Model == "broken" {
			http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
			return
		}
		last := in.Messages[len(in.Messages)-1]
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": types.Message{Role: types.RoleAssistant, Content: "echo " + last.Content},
			"done":    true,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPingAndTags(t *testing.T) {
	srv := newOllama(t)
	c := NewClient(srv.URL+"/", logging.Discard())

	require.NoError(t, c.Ping(context.Background()))

	tags, err := c.Tags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 2)

	ok, err := c.HasModel(context.Background(), "mistral")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.HasModel(context.Background(), "llama3")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestChat(t *testing.T) {
	srv := newOllama(t)
	c := NewClient(srv.URL, logging.Discard())

	text, _, err := c.Chat(context.Background(), "mistral", []types.Message{
		{Role: types.RoleSystem, Content: "be nice"},
		{Role: types.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	require.Equal(t, "echo hi", text)

	_, _, err = c.Chat(context.Background(), "broken", []types.Message{{Role: types.RoleUser, Content: "hi"}})
	require.ErrorContains(t, err, "model not found")
}

func TestPingUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	require.Error(t, NewClient(url, logging.Discard()).Ping(context.Background()))
}

func TestWaitReady(t *testing.T) {
	srv := newOllama(t)
	c := NewClient(srv.URL, logging.Discard())

	require.NoError(t, c.WaitReady(context.Background(), []string{"mistral", "phi3:mini"}, 10*time.Millisecond))

	for _, timeout := range []time.Duration{5 * time.Millisecond, 50 * time.Millisecond} {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := c.WaitReady(ctx, []string{"llama3"}, 10*time.Millisecond)
		cancel()
		require.ErrorContains(t, err, "model not present yet: llama3")
		require.ErrorContains(t, err, "wait for ollama: context deadline exceeded")
	}
}
