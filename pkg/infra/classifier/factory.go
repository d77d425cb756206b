package classifier

import (
	"fmt"
	"strings"
)

// NewClient returns nil without error when no API key is configured: the
// gated classifier then reports every call as unavailable.
func NewClient(cfg Config, opts ...Option) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderPerspective:
		return NewPerspectiveClient(cfg, opts...), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}
