package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
	BackendEcho   = "echo"
)

type Server struct {
	Host     string `env:"HOST" envDefault:"0.0.0.0"`
	Port     string `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`

	Backend     string  `env:"BACKEND" envDefault:"openai"`
	APIKey      string  `env:"API_KEY"`
	BaseURL     string  `env:"BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	Model       string  `env:"MODEL" envDefault:"mistralai/mistral-7b-instruct"`
	MaxTokens   int     `env:"MAX_TOKENS" envDefault:"1000"`
	Temperature float32 `env:"TEMPERATURE" envDefault:"0.7"`

	OllamaURL   string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaModel string `env:"OLLAMA_MODEL" envDefault:"mistral"`
	// OllamaWait holds startup until Ollama answers and has OllamaModel pulled.
	OllamaWait         bool          `env:"OLLAMA_WAIT" envDefault:"false"`
	OllamaWaitTimeout  time.Duration `env:"OLLAMA_WAIT_TIMEOUT" envDefault:"180s"`
	OllamaWaitInterval time.Duration `env:"OLLAMA_WAIT_INTERVAL" envDefault:"2s"`

	PersonasFile     string `env:"PERSONAS_FILE"`
	StaticDir        string `env:"STATIC_DIR"`
	MaxHistoryTokens int    `env:"MAX_HISTORY_TOKENS" envDefault:"6000"`
	ChatRatePerMin   int    `env:"CHAT_RATE_PER_MIN" envDefault:"60"`
}

type Client struct {
	Endpoint string `env:"CHAT_ENDPOINT" envDefault:"http://127.0.0.1:8000/chat"`
	Role     string `env:"CHAT_ROLE" envDefault:"Casual"`
	Style    string `env:"CHAT_STYLE" envDefault:"Friendly"`
	Length   string `env:"CHAT_LENGTH" envDefault:"Short"`
	Ordered  bool   `env:"CHAT_ORDERED" envDefault:"false"`
	HTMLLog  string `env:"CHAT_HTML_LOG"`
	LogFile  string `env:"CHAT_LOG_FILE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadServer reads .env (if present) and then the process environment.
func LoadServer() (*Server, error) {
	_ = godotenv.Load()
	cfg := &Server{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse server env")
	}
	return cfg, nil
}

func LoadClient() (*Client, error) {
	_ = godotenv.Load()
	cfg := &Client{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse client env")
	}
	return cfg, nil
}

// Validate checks settings whose requirements depend on other settings.
func (c *Server) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendOpenAI:
		if c.APIKey == "" {
			return errors.New("API_KEY not set in environment variables")
		}
	case BackendOllama, BackendEcho:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if c.MaxHistoryTokens < 0 {
		return errors.New("MAX_HISTORY_TOKENS must not be negative")
	}
	return nil
}

func (c *Server) Addr() string {
	return c.Host + ":" + c.Port
}
