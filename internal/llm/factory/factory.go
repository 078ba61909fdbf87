// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/newthinker/swingdesk/internal/config"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/llm"
	"github.com/newthinker/swingdesk/internal/llm/claude"
	"github.com/newthinker/swingdesk/internal/llm/openai"
)

// New creates an LLM provider based on configuration. An empty provider
// name returns nil with no error: commentary is disabled.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model, cfg.Claude.BaseURL)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown LLM provider: %s", cfg.Provider))
	}
}
