package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/turtacn/geometax/internal/domain/ontology"
	"github.com/turtacn/geometax/internal/infrastructure/database/redis"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
)

// CachedOracle caches the capabilities whose answers are stable for a given
// input: term-keyed suggestions and whole-record extractions.  Disambiguate
// and Recheck pass through, their inputs include candidate and exclusion
// lists that rarely repeat.  Cache failures degrade to a direct call.
type CachedOracle struct {
	inner  Oracle
	cache  redis.Cache
	logger logging.Logger
	ttl    time.Duration
}

// NewCachedOracle wraps inner with a response cache.
func NewCachedOracle(inner Oracle, cache redis.Cache, logger logging.Logger, ttl time.Duration) *CachedOracle {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &CachedOracle{inner: inner, cache: cache, logger: logger, ttl: ttl}
}

func recordKey(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:])
}

func copyValue(v, dest interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (o *CachedOracle) getOrCall(ctx context.Context, key string, dest interface{}, load func(ctx context.Context) (interface{}, error)) error {
	err := o.cache.GetOrSet(ctx, key, dest, o.ttl, load)
	if err == nil || err == redis.ErrCacheMiss {
		return err
	}
	o.logger.Warn("oracle cache bypassed", logging.String("key", key), logging.Err(err))
	v, callErr := load(ctx)
	if callErr != nil {
		return callErr
	}
	return copyValue(v, dest)
}

// IsControl implements Oracle.
func (o *CachedOracle) IsControl(ctx context.Context, record string, series []string) (bool, error) {
	key := "oracle:is_control:" + recordKey(append([]string{record}, series...)...)
	var out bool
	err := o.getOrCall(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		v, err := o.inner.IsControl(ctx, record, series)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	return out, err
}

// ExtractFactor implements Oracle.
func (o *CachedOracle) ExtractFactor(ctx context.Context, record string, series []string) (string, error) {
	key := "oracle:extract_factor:" + recordKey(append([]string{record}, series...)...)
	var out string
	err := o.getOrCall(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		v, err := o.inner.ExtractFactor(ctx, record, series)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	return out, err
}

// ExtractOntology implements Oracle.
func (o *CachedOracle) ExtractOntology(ctx context.Context, record string, series []string) (ontology.Candidates, error) {
	key := "oracle:extract_ontology:" + recordKey(append([]string{record}, series...)...)
	var out ontology.Candidates
	err := o.getOrCall(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		v, err := o.inner.ExtractOntology(ctx, record, series)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	return out, err
}

// Disambiguate implements Oracle; not cached.
func (o *CachedOracle) Disambiguate(ctx context.Context, candidates []string, record string, series []string) (string, error) {
	return o.inner.Disambiguate(ctx, candidates, record, series)
}

// Synonyms implements Oracle.
func (o *CachedOracle) Synonyms(ctx context.Context, term string) ([]string, error) {
	var out []string
	err := o.getOrCall(ctx, "oracle:synonyms:"+recordKey(term), &out, func(ctx context.Context) (interface{}, error) {
		v, err := o.inner.Synonyms(ctx, term)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	return out, err
}

// AlternateNames implements Oracle.
func (o *CachedOracle) AlternateNames(ctx context.Context, term string) ([]string, error) {
	var out []string
	err := o.getOrCall(ctx, "oracle:alternate_names:"+recordKey(term), &out, func(ctx context.Context) (interface{}, error) {
		v, err := o.inner.AlternateNames(ctx, term)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	return out, err
}

// Recheck implements Oracle; not cached.
func (o *CachedOracle) Recheck(ctx context.Context, record string, series []string, excluded []string) (string, error) {
	return o.inner.Recheck(ctx, record, series, excluded)
}
