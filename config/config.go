package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config aggregates all application configuration
type Config struct {
	AI           AIConfig           `yaml:"ai"`
	Conversation ConversationConfig `yaml:"conversation"`
	Twilio       TwilioConfig       `yaml:"twilio"`
	GoogleMaps   GoogleMapsConfig   `yaml:"google_maps"`
	Tavily       TavilyConfig       `yaml:"tavily"`
	Audit        AuditConfig        `yaml:"audit"`
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
}

type AIConfig struct {
	Provider  string          `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Retry     RetryConfig     `yaml:"retry"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" env:"OPENAI_API_KEY"`
	Model   string `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	BaseURL string `yaml:"base_url" env:"OPENAI_BASE_URL"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model  string `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-1.5-flash"`
}

type AnthropicConfig struct {
	APIKey    string `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	Model     string `yaml:"model" env:"ANTHROPIC_MODEL" env-default:"claude-3-7-sonnet-latest"`
	MaxTokens int64  `yaml:"max_tokens" env:"ANTHROPIC_MAX_TOKENS" env-default:"1024"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"base_url" env:"OLLAMA_BASE_URL" env-default:"http://localhost:11434"`
	Model   string `yaml:"model" env:"OLLAMA_MODEL" env-default:"llama3.1"`
}

type RetryConfig struct {
	Attempts  int           `yaml:"attempts" env:"AI_RETRY_ATTEMPTS" env-default:"3"`
	BaseDelay time.Duration `yaml:"base_delay" env:"AI_RETRY_BASE_DELAY" env-default:"200ms"`
}

type ConversationConfig struct {
	MaxTurns     int           `yaml:"max_turns" env:"CONVERSATION_MAX_TURNS" env-default:"10"`
	ModelTimeout time.Duration `yaml:"model_timeout" env:"CONVERSATION_MODEL_TIMEOUT" env-default:"60s"`
	ToolTimeout  time.Duration `yaml:"tool_timeout" env:"CONVERSATION_TOOL_TIMEOUT" env-default:"30s"`
	SystemPrompt string        `yaml:"system_prompt" env:"CONVERSATION_SYSTEM_PROMPT"`
}

type TwilioConfig struct {
	AccountSID  string `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID"`
	AuthToken   string `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN"`
	PhoneNumber string `yaml:"phone_number" env:"TWILIO_PHONE_NUMBER"`
}

// Enabled reports whether every credential needed to send messages is set
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.PhoneNumber != ""
}

type GoogleMapsConfig struct {
	APIKey string `yaml:"api_key" env:"GOOGLE_MAPS_API_KEY"`
}

type TavilyConfig struct {
	APIKey  string        `yaml:"api_key" env:"TAVILY_API_KEY"`
	Timeout time.Duration `yaml:"timeout" env:"TAVILY_TIMEOUT" env-default:"30s"`
}

type AuditConfig struct {
	Driver string `yaml:"driver" env:"AUDIT_DRIVER" env-default:"none"`
	DSN    string `yaml:"dsn" env:"AUDIT_DSN"`
}

type ServerConfig struct {
	Port             string `yaml:"port" env:"PORT" env-default:"8000"`
	MaxConversations int64  `yaml:"max_conversations" env:"SERVER_MAX_CONVERSATIONS" env-default:"16"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from config.yaml and environment variables
// Priority: Env Vars > Config File > Defaults
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit config file path.
// A missing or unreadable file falls back to environment variables only.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	err := cleanenv.ReadConfig(path, &cfg)
	if err != nil {
		cfg = Config{}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the selected provider and audit driver are usable
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "openai":
		if c.AI.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set (or choose another AI_PROVIDER)")
		}
	case "gemini":
		if c.AI.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set (or choose another AI_PROVIDER)")
		}
	case "anthropic":
		if c.AI.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY must be set (or choose another AI_PROVIDER)")
		}
	case "ollama":
		if c.AI.Ollama.Model == "" {
			return fmt.Errorf("OLLAMA_MODEL must be set")
		}
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q (want openai, gemini, anthropic or ollama)", c.AI.Provider)
	}

	switch c.Audit.Driver {
	case "", "none":
	case "sqlite", "postgres":
		if c.Audit.DSN == "" {
			return fmt.Errorf("AUDIT_DSN must be set for audit driver %q", c.Audit.Driver)
		}
	default:
		return fmt.Errorf("unsupported AUDIT_DRIVER %q (want none, sqlite or postgres)", c.Audit.Driver)
	}

	if c.Conversation.MaxTurns <= 0 {
		return fmt.Errorf("CONVERSATION_MAX_TURNS must be positive, got %d", c.Conversation.MaxTurns)
	}
	return nil
}
