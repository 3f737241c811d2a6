package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/varsilias/bubblechat/internal/chat"
	"github.com/varsilias/bubblechat/internal/config"
	"github.com/varsilias/bubblechat/internal/logging"
)

func TestRootHasCommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	require.ElementsMatch(t, []string{"serve", "chat"}, names)

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	require.NotNil(t, serve.Flags().Lookup("backend"))
}

func TestNewEngine(t *testing.T) {
	ctx := context.Background()
	log := logging.Discard()

	eng, err := newEngine(ctx, log, &config.Server{Backend: config.BackendEcho})
	require.NoError(t, err)
	require.IsType(t, &chat.EchoEngine{}, eng)

	eng, err = newEngine(ctx, log, &config.Server{Backend: config.BackendOpenAI, APIKey: "k", Model: "m"})
	require.NoError(t, err)
	require.IsType(t, &chat.OpenAIEngine{}, eng)

	_, err = newEngine(ctx, log, &config.Server{Backend: "carrier-pigeon"})
	require.Error(t, err)
}

func TestNewEngineOllama(t *testing.T) {
	ollamaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/version":
			_, _ = w.Write([]byte(`{"version":"0.5.0"}`))
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"mistral:latest"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ollamaSrv.Close()

	cfg := &config.Server{
		Backend:            config.BackendOllama,
		OllamaURL:          ollamaSrv.URL,
		OllamaModel:        "mistral",
		OllamaWait:         true,
		OllamaWaitTimeout:  time.Second,
		OllamaWaitInterval: 10 * time.Millisecond,
	}
	eng, err := newEngine(context.Background(), logging.Discard(), cfg)
	require.NoError(t, err)
	require.IsType(t, &chat.OllamaEngine{}, eng)
}

func TestNewEngineOllamaUnreachableFallsBack(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	eng, err := newEngine(context.Background(), logging.Discard(), &config.Server{
		Backend:   config.BackendOllama,
		OllamaURL: url,
	})
	require.NoError(t, err)
	require.IsType(t, &chat.EchoEngine{}, eng)
}

func TestClientLogger(t *testing.T) {
	log, closeLog, err := clientLogger(&config.Client{})
	require.NoError(t, err)
	require.NotNil(t, log)
	closeLog()

	path := filepath.Join(t.TempDir(), "chat.log")
	log, closeLog, err = clientLogger(&config.Client{LogFile: path, LogLevel: "debug"})
	require.NoError(t, err)
	log.Info("hello from the client")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello from the client")
}
