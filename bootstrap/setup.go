package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/va6996/aifns/agents"
	"github.com/va6996/aifns/config"
	"github.com/va6996/aifns/llm"
	"github.com/va6996/aifns/log"
	"github.com/va6996/aifns/orm"
	"github.com/va6996/aifns/plugins"
	"github.com/va6996/aifns/plugins/core"
	"github.com/va6996/aifns/plugins/googlemaps"
	"github.com/va6996/aifns/plugins/hackernews"
	"github.com/va6996/aifns/plugins/nager"
	"github.com/va6996/aifns/plugins/openmeteo"
	"github.com/va6996/aifns/plugins/reddit"
	"github.com/va6996/aifns/plugins/rss"
	"github.com/va6996/aifns/plugins/tavily"
	"github.com/va6996/aifns/plugins/twilio"
	"github.com/va6996/aifns/providers/anthropic"
	"github.com/va6996/aifns/providers/gemini"
	"github.com/va6996/aifns/providers/ollama"
	"github.com/va6996/aifns/providers/openai"
	"github.com/va6996/aifns/tools"
)

// App holds the initialized components of the application
type App struct {
	Conversation agents.Conversation
	Registry     *tools.Registry
	Client       llm.Client
	// Audit is nil when the audit log is disabled
	Audit *orm.Store

	closers []func() error
}

// Close releases the model client and the audit database
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type setupOptions struct {
	client  llm.Client
	plugins []plugins.Plugin
}

type Option func(*setupOptions)

// WithClient uses client instead of building one from the AI config
func WithClient(client llm.Client) Option {
	return func(o *setupOptions) { o.client = client }
}

// WithPlugins offers extra capabilities after the built-in ones
func WithPlugins(p ...plugins.Plugin) Option {
	return func(o *setupOptions) { o.plugins = append(o.plugins, p...) }
}

// Setup initializes the application components based on the configuration
func Setup(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var so setupOptions
	for _, opt := range opts {
		opt(&so)
	}

	app := &App{}

	// 1. Model client
	client := so.client
	if client == nil {
		provider, closer, err := newProvider(ctx, cfg.AI)
		if err != nil {
			return nil, err
		}
		if closer != nil {
			app.closers = append(app.closers, closer)
		}
		client = llm.WithRetry(provider, llm.RetryConfig{
			MaxAttempts: cfg.AI.Retry.Attempts,
			BaseDelay:   cfg.AI.Retry.BaseDelay,
		})
	}
	app.Client = client

	// 2. Capabilities
	enabled, err := builtinPlugins(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	registry, err := tools.NewRegistry(plugins.Collect(append(enabled, so.plugins...)...)...)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}
	app.Registry = registry
	log.Infof(ctx, "Registered %d tools: %v", registry.Len(), registry.Names())

	// 3. Audit log
	orchOpts := []agents.Option{
		agents.WithMaxTurns(cfg.Conversation.MaxTurns),
		agents.WithModelTimeout(cfg.Conversation.ModelTimeout),
		agents.WithToolTimeout(cfg.Conversation.ToolTimeout),
		agents.WithSystemPrompt(cfg.Conversation.SystemPrompt),
	}
	if cfg.AI.Provider == "anthropic" && cfg.AI.Anthropic.MaxTokens > 0 {
		orchOpts = append(orchOpts, agents.WithMaxTokens(cfg.AI.Anthropic.MaxTokens))
	}

	switch cfg.Audit.Driver {
	case "", "none":
	default:
		db, err := orm.Open(cfg.Audit.Driver, cfg.Audit.DSN)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Audit = orm.NewStore(db)
		app.closers = append(app.closers, app.Audit.Close)
		orchOpts = append(orchOpts, agents.WithRecorder(app.Audit))
		log.Infof(ctx, "Auditing tool calls to %s", cfg.Audit.Driver)
	}

	// 4. Orchestrator
	app.Conversation = agents.NewOrchestrator(client, registry, orchOpts...)

	return app, nil
}

func newProvider(ctx context.Context, cfg config.AIConfig) (llm.Client, func() error, error) {
	switch cfg.Provider {
	case "openai":
		log.Infof(ctx, "Using OpenAI provider (model: %s)", cfg.OpenAI.Model)
		c, err := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		return c, nil, nil
	case "gemini":
		log.Infof(ctx, "Using Gemini provider (model: %s)", cfg.Gemini.Model)
		c, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		return c, c.Close, nil
	case "anthropic":
		log.Infof(ctx, "Using Anthropic provider (model: %s)", cfg.Anthropic.Model)
		c, err := anthropic.NewClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Anthropic client: %w", err)
		}
		return c, nil, nil
	case "ollama":
		log.Infof(ctx, "Using Ollama provider (model: %s)", cfg.Ollama.Model)
		return ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Model), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

// builtinPlugins returns the plugins in the order their tools are offered.
// Plugins needing credentials are skipped when those are not configured.
func builtinPlugins(cfg *config.Config) ([]plugins.Plugin, error) {
	enabled := []plugins.Plugin{
		core.NewClient(),
		openmeteo.NewClient(),
		nager.NewClient(),
		hackernews.NewClient(),
		reddit.NewClient(),
		rss.NewClient(),
	}

	if cfg.GoogleMaps.APIKey != "" {
		maps, err := googlemaps.NewClient(cfg.GoogleMaps.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Maps client: %w", err)
		}
		enabled = append(enabled, maps)
	}

	if cfg.Tavily.APIKey != "" {
		search, err := tavily.NewClient(cfg.Tavily.APIKey, cfg.Tavily.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Tavily client: %w", err)
		}
		enabled = append(enabled, search)
	}

	if cfg.Twilio.Enabled() {
		sms, err := twilio.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Twilio client: %w", err)
		}
		enabled = append(enabled, sms)
	}

	return enabled, nil
}
