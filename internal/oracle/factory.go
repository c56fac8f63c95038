package oracle

import (
	"strings"

	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

const defaultMaxTokens = 1024

// New builds an Oracle for the configured provider.
func New(cfg Config, logger logging.Logger) (Oracle, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var client Client
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		client = NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, maxTokens)
	case ProviderAnthropic:
		client = NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.BaseURL, maxTokens)
	case "":
		return nil, errors.New(errors.ErrCodeOracleProviderUnset, "oracle provider not configured")
	default:
		return nil, errors.New(errors.ErrCodeOracleProviderUnset, "unsupported oracle provider").
			WithDetail(cfg.Provider)
	}
	return NewLLMOracle(client, logger), nil
}
