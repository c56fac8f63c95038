// Package oracle provides the language-model capabilities the resolution
// pipeline depends on: candidate extraction, control-sample detection,
// disambiguation, synonym and alternate-name suggestion, and recheck.  The
// resolvers consume these as black-box functions; every implementation here
// makes exactly one attempt per call, leaving retry policy to the callers.
package oracle

import (
	"context"

	"github.com/turtacn/geometax/internal/domain/ontology"
)

// Oracle is the full capability set.  It satisfies the narrower interfaces
// declared by the factor and ontology resolvers.
type Oracle interface {
	// IsControl reports whether the sample record describes a control or
	// input experiment that has no target factor by definition.
	IsControl(ctx context.Context, record string, series []string) (bool, error)

	// ExtractFactor proposes a candidate target factor from the record, or
	// the literal "None" when nothing is identifiable.
	ExtractFactor(ctx context.Context, record string, series []string) (string, error)

	// ExtractOntology proposes the four candidate biosample descriptors,
	// with "N/A" asserted for slots absent from the metadata.
	ExtractOntology(ctx context.Context, record string, series []string) (ontology.Candidates, error)

	// Disambiguate chooses one symbol from candidates.
	Disambiguate(ctx context.Context, candidates []string, record string, series []string) (string, error)

	// Synonyms returns alternative names for a gene or protein term.
	Synonyms(ctx context.Context, term string) ([]string, error)

	// AlternateNames returns exactly three rephrasings of a biosample term.
	AlternateNames(ctx context.Context, term string) ([]string, error)

	// Recheck re-extracts a candidate factor, avoiding excluded.
	Recheck(ctx context.Context, record string, series []string, excluded []string) (string, error)
}

// Client is the transport beneath an Oracle: one prompt in, one completion
// out.  Provider adapters (OpenAI, Anthropic) implement it.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config selects and parameterises a provider backend.
type Config struct {
	Provider  string `mapstructure:"provider" json:"provider"`
	APIKey    string `mapstructure:"api_key" json:"-"`
	Model     string `mapstructure:"model" json:"model"`
	BaseURL   string `mapstructure:"base_url" json:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens" json:"max_tokens"`
}
