package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"AI_PROVIDER",
	"OPENAI_API_KEY",
	"OPENAI_MODEL",
	"GEMINI_API_KEY",
	"ANTHROPIC_API_KEY",
	"CONVERSATION_MAX_TURNS",
	"CONVERSATION_TOOL_TIMEOUT",
	"TWILIO_ACCOUNT_SID",
	"TWILIO_AUTH_TOKEN",
	"TWILIO_PHONE_NUMBER",
	"AUDIT_DRIVER",
	"AUDIT_DSN",
	"PORT",
}

// clearEnv unsets the config env vars for the duration of the test
func clearEnv(t *testing.T) {
	for _, key := range configEnvVars {
		orig, had := os.LookupEnv(key)
		os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				os.Setenv(key, orig)
			} else {
				os.Unsetenv(key)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		clearEnv(t)

		cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "openai", cfg.AI.Provider)
		assert.Equal(t, "gpt-4o-mini", cfg.AI.OpenAI.Model)
		assert.Equal(t, "gemini-1.5-flash", cfg.AI.Gemini.Model)
		assert.Equal(t, int64(1024), cfg.AI.Anthropic.MaxTokens)
		assert.Equal(t, "llama3.1", cfg.AI.Ollama.Model)
		assert.Equal(t, 30*time.Second, cfg.Tavily.Timeout)
		assert.Equal(t, 3, cfg.AI.Retry.Attempts)
		assert.Equal(t, 200*time.Millisecond, cfg.AI.Retry.BaseDelay)
		assert.Equal(t, 10, cfg.Conversation.MaxTurns)
		assert.Equal(t, 60*time.Second, cfg.Conversation.ModelTimeout)
		assert.Equal(t, 30*time.Second, cfg.Conversation.ToolTimeout)
		assert.Equal(t, "none", cfg.Audit.Driver)
		assert.Equal(t, "8000", cfg.Server.Port)
		assert.Equal(t, int64(16), cfg.Server.MaxConversations)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Twilio.Enabled())
	})

	t.Run("EnvironmentVariables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AI_PROVIDER", "anthropic")
		t.Setenv("ANTHROPIC_API_KEY", "test-key")
		t.Setenv("CONVERSATION_MAX_TURNS", "4")
		t.Setenv("CONVERSATION_TOOL_TIMEOUT", "5s")
		t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
		t.Setenv("TWILIO_AUTH_TOKEN", "secret")
		t.Setenv("TWILIO_PHONE_NUMBER", "+15550000000")

		cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "anthropic", cfg.AI.Provider)
		assert.Equal(t, "test-key", cfg.AI.Anthropic.APIKey)
		assert.Equal(t, 4, cfg.Conversation.MaxTurns)
		assert.Equal(t, 5*time.Second, cfg.Conversation.ToolTimeout)
		assert.True(t, cfg.Twilio.Enabled())
	})

	t.Run("ConfigFile", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "ai:\n  provider: gemini\n  gemini:\n    api_key: file-key\nconversation:\n  max_turns: 3\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "gemini", cfg.AI.Provider)
		assert.Equal(t, "file-key", cfg.AI.Gemini.APIKey)
		assert.Equal(t, 3, cfg.Conversation.MaxTurns)
		// Defaults still apply for fields absent from the file
		assert.Equal(t, 30*time.Second, cfg.Conversation.ToolTimeout)
	})

	t.Run("EnvOverridesFile", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("ai:\n  provider: gemini\n"), 0o600))
		t.Setenv("AI_PROVIDER", "openai")

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.AI.Provider)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AI:           AIConfig{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "k"}},
			Conversation: ConversationConfig{MaxTurns: 10},
			Audit:        AuditConfig{Driver: "none"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid"},
		{name: "missing openai key", mutate: func(c *Config) { c.AI.OpenAI.APIKey = "" }, wantErr: "OPENAI_API_KEY"},
		{name: "missing gemini key", mutate: func(c *Config) { c.AI.Provider = "gemini" }, wantErr: "GEMINI_API_KEY"},
		{name: "missing anthropic key", mutate: func(c *Config) { c.AI.Provider = "anthropic" }, wantErr: "ANTHROPIC_API_KEY"},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.Provider = "cohere" }, wantErr: "unsupported AI_PROVIDER"},
		{name: "ollama needs no key", mutate: func(c *Config) { c.AI.Provider = "ollama"; c.AI.Ollama.Model = "llama3.1" }},
		{name: "ollama without model", mutate: func(c *Config) { c.AI.Provider = "ollama"; c.AI.Ollama.Model = "" }, wantErr: "OLLAMA_MODEL"},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.Audit.Driver = "sqlite" }, wantErr: "AUDIT_DSN"},
		{name: "sqlite with dsn", mutate: func(c *Config) { c.Audit.Driver = "sqlite"; c.Audit.DSN = "audit.db" }},
		{name: "unknown audit driver", mutate: func(c *Config) { c.Audit.Driver = "mysql" }, wantErr: "unsupported AUDIT_DRIVER"},
		{name: "zero turns", mutate: func(c *Config) { c.Conversation.MaxTurns = 0 }, wantErr: "CONVERSATION_MAX_TURNS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
