package oracle

import (
	"context"
	"time"

	"github.com/turtacn/geometax/internal/domain/ontology"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// LLMOracle implements Oracle over any completion Client.  It owns prompt
// construction and response parsing; it performs no retries and no caching,
// both of which belong to decorators and callers.
type LLMOracle struct {
	client Client
	logger logging.Logger
}

// NewLLMOracle wraps a completion client.
func NewLLMOracle(client Client, logger logging.Logger) *LLMOracle {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &LLMOracle{client: client, logger: logger}
}

func (o *LLMOracle) generate(ctx context.Context, capability, prompt string) (string, error) {
	start := time.Now()
	raw, err := o.client.Generate(ctx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		o.logger.Warn("oracle call failed",
			logging.String("capability", capability),
			logging.Duration("elapsed", elapsed),
			logging.Err(err))
		return "", err
	}
	o.logger.Debug("oracle call completed",
		logging.String("capability", capability),
		logging.Duration("elapsed", elapsed))
	return raw, nil
}

// IsControl implements Oracle.
func (o *LLMOracle) IsControl(ctx context.Context, record string, series []string) (bool, error) {
	raw, err := o.generate(ctx, "is_control", isControlPrompt(record, series))
	if err != nil {
		return false, err
	}
	return parseBool(raw)
}

// ExtractFactor implements Oracle.
func (o *LLMOracle) ExtractFactor(ctx context.Context, record string, series []string) (string, error) {
	raw, err := o.generate(ctx, "extract_factor", extractFactorPrompt(record, series))
	if err != nil {
		return "", err
	}
	candidate := parseScalar(raw)
	if candidate == "" {
		return "", errors.New(errors.ErrCodeOracleBadResponse, "empty factor candidate")
	}
	return candidate, nil
}

// ExtractOntology implements Oracle.
func (o *LLMOracle) ExtractOntology(ctx context.Context, record string, series []string) (ontology.Candidates, error) {
	raw, err := o.generate(ctx, "extract_ontology", extractOntologyPrompt(record, series))
	if err != nil {
		return ontology.Candidates{}, err
	}
	var c ontology.Candidates
	if err := parseObject(raw, &c); err != nil {
		return ontology.Candidates{}, err
	}
	return c, nil
}

// Disambiguate implements Oracle.
func (o *LLMOracle) Disambiguate(ctx context.Context, candidates []string, record string, series []string) (string, error) {
	raw, err := o.generate(ctx, "disambiguate", disambiguatePrompt(candidates, record, series))
	if err != nil {
		return "", err
	}
	return parseScalar(raw), nil
}

// Synonyms implements Oracle.
func (o *LLMOracle) Synonyms(ctx context.Context, term string) ([]string, error) {
	raw, err := o.generate(ctx, "synonyms", synonymsPrompt(term))
	if err != nil {
		return nil, err
	}
	return parseStringList(raw)
}

// AlternateNames implements Oracle.  The three-element contract is enforced
// by the ontology resolver, not here: a malformed list is still returned so
// the caller can log its actual shape.
func (o *LLMOracle) AlternateNames(ctx context.Context, term string) ([]string, error) {
	raw, err := o.generate(ctx, "alternate_names", alternateNamesPrompt(term))
	if err != nil {
		return nil, err
	}
	return parseStringList(raw)
}

// Recheck implements Oracle.
func (o *LLMOracle) Recheck(ctx context.Context, record string, series []string, excluded []string) (string, error) {
	raw, err := o.generate(ctx, "recheck", recheckPrompt(record, series, excluded))
	if err != nil {
		return "", err
	}
	candidate := parseScalar(raw)
	if candidate == "" {
		return "", errors.New(errors.ErrCodeOracleBadResponse, "empty recheck candidate")
	}
	return candidate, nil
}
