package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`

	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	AnthropicVersion string `env:"ANTHROPIC_VERSION" envDefault:"2023-06-01"`

	Model         string `env:"CLAUDE_MODEL" envDefault:"claude-3-5-haiku-latest"`
	MaxTokens     int    `env:"CLAUDE_MAX_TOKENS" envDefault:"0"`
	SystemPrompt  string `env:"CLAUDE_SYSTEM_PROMPT"`
	HistoryFile   string `env:"CLAUDE_HISTORY_FILE,expand" envDefault:"${HOME}/.claude_tty_history"`
	TokenTracking bool   `env:"TOKEN_TRACKING" envDefault:"true"`

	// Usage ledger. Empty disables it.
	DatabaseURL      string `env:"DATABASE_URL"`
	WriterBufferSize int    `env:"WRITER_BUFFER_SIZE" envDefault:"10000"`
	WriterBatchSize  int    `env:"WRITER_BATCH_SIZE" envDefault:"100"`
	WriterFlushMs    int    `env:"WRITER_FLUSH_MS" envDefault:"100"`

	// Raw stream capture. Empty disables it.
	CaptureDir    string        `env:"CAPTURE_DIR"`
	CaptureMaxAge time.Duration `env:"CAPTURE_MAX_AGE" envDefault:"168h"`
}

var ErrMissingAPIKey = errors.New("ANTHROPIC_API_KEY is not set")

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireAPIKey fails when no key is configured. Commands that never reach
// the API skip it.
func (c *Config) RequireAPIKey() error {
	if c.AnthropicAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (c *Config) LedgerEnabled() bool  { return c.DatabaseURL != "" }
func (c *Config) CaptureEnabled() bool { return c.CaptureDir != "" }

func (c *Config) WriterFlushInterval() time.Duration {
	return time.Duration(c.WriterFlushMs) * time.Millisecond
}
