package provider

import (
	"fmt"
	"strings"

	"github.com/halluscan/halluscan/internal/model"
)

// New creates the scoring backend named in the configuration. An empty name
// selects the lexical fallback: evaluation works out of the box with no
// model and no network.
func New(cfg model.ProviderConfig, httpCfg model.HTTPConfig) (Backend, error) {
	switch strings.ToLower(cfg.Name) {
	case "", "lexical":
		return NewLexical(), nil

	case "openai":
		return NewOpenAI(cfg)

	case "ollama":
		return NewOllama(cfg, httpCfg)

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: lexical, openai, ollama)", cfg.Name)
	}
}
